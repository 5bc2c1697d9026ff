package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "comparisons/abc/invoice1", ObjectKey("abc", "invoice1"))
	assert.Equal(t, "comparisons/abc/po3", ObjectKey("abc", "po3"))
}

func TestMetadataFilename(t *testing.T) {
	assert.Equal(t, "facture été.pdf", metadataFilename(map[string]string{"Filename": "facture%20%C3%A9t%C3%A9.pdf"}))
	assert.Equal(t, "po.pdf", metadataFilename(map[string]string{"X-Amz-Meta-Filename": "po.pdf"}))
	assert.Equal(t, "", metadataFilename(nil))
}
