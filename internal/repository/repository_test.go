package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-checker/internal/db"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()

	database, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database))
	// Applying twice is a no-op.
	require.NoError(t, db.RunMigrations(database))

	return NewRepository(database)
}

func TestCreateCompleteAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Comparison{
		ID:               "cmp-1",
		InvoiceFilenames: []string{"inv.pdf"},
		POFilenames:      []string{"po.pdf"},
		CreatedAt:        created,
	}))

	total := 99.5
	results := []models.ComparisonResult{{
		InvoiceNumber: "INV-1",
		PONumber:      "PO-1",
		Match:         true,
		Vendor:        "Acme",
		TotalAmount:   &total,
		Status:        "APPROVED - No issues found!",
		Details:       "✓ Perfect Match!",
	}}
	require.NoError(t, repo.Complete(ctx, "cmp-1", results))

	got, err := repo.GetByID(ctx, "cmp-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"inv.pdf"}, got.InvoiceFilenames)
	assert.Equal(t, []string{"po.pdf"}, got.POFilenames)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.Error)
	require.Len(t, got.Results, 1)
	assert.Equal(t, models.Identifier("INV-1"), got.Results[0].InvoiceNumber)
}

func TestFailRecordsMessage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Comparison{ID: "cmp-2", CreatedAt: time.Now()}))
	require.NoError(t, repo.Fail(ctx, "cmp-2", "Could not parse data from the model."))

	got, err := repo.GetByID(ctx, "cmp-2")
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, "Could not parse data from the model.", *got.Error)
	assert.Empty(t, got.Results)
	assert.Equal(t, []string{}, got.InvoiceFilenames)
}

func TestGetByIDUnknown(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &models.Comparison{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}
