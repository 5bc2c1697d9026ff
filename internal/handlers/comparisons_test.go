package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/services"
	"github.com/BerylCAtieno/invoice-checker/internal/storage"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

type fakeService struct {
	got     *services.CompareRequest
	results []models.ComparisonResult
	err     error
}

func (f *fakeService) Compare(ctx context.Context, req *services.CompareRequest) ([]models.ComparisonResult, error) {
	f.got = req
	return f.results, f.err
}

func (f *fakeService) ListModels(ctx context.Context) ([]string, error) {
	return []string{"m1"}, f.err
}

func (f *fakeService) GetComparison(ctx context.Context, id string) (*models.Comparison, error) {
	if id == "known" {
		return &models.Comparison{ID: id}, nil
	}
	return nil, utils.NewNotFoundError("Comparison not found")
}

func (f *fakeService) ListComparisons(ctx context.Context, limit int) ([]*models.Comparison, error) {
	return nil, f.err
}

func (f *fakeService) DownloadFile(ctx context.Context, id, field string) (*storage.Object, error) {
	if id == "known" && field == "invoice1" {
		return &storage.Object{Filename: "facture été.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, nil
	}
	return nil, utils.NewNotFoundError("Document not found")
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestCompareCollectsSlotsInOrder(t *testing.T) {
	svc := &fakeService{results: []models.ComparisonResult{{InvoiceNumber: "1", PONumber: "2", Status: "ok", Details: "d"}}}
	h := NewComparisonHandler(svc, 1<<20, utils.NewNopLogger())

	body, contentType := multipartBody(t, map[string]string{
		"invoice3": "third invoice",
		"invoice1": "first invoice",
		"po2":      "second po",
		"other":    "ignored",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/compare/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Compare(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	require.Len(t, svc.got.Invoices, 2)
	assert.Equal(t, "invoice1", svc.got.Invoices[0].Field)
	assert.Equal(t, "invoice3", svc.got.Invoices[1].Field)
	assert.Equal(t, []byte("first invoice"), svc.got.Invoices[0].Data)
	require.Len(t, svc.got.POs, 1)
	assert.Equal(t, "po2", svc.got.POs[0].Field)

	var results []models.ComparisonResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 1)
}

func TestCompareWithoutMultipartBody(t *testing.T) {
	svc := &fakeService{err: utils.NewBadRequestError(services.MsgMissingDocuments)}
	h := NewComparisonHandler(svc, 1<<20, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Compare(rec, httptest.NewRequest(http.MethodPost, "/api/compare/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Please upload at least one invoice and one purchase order."}`, rec.Body.String())
	require.NotNil(t, svc.got)
	assert.Empty(t, svc.got.Invoices)
}

func TestCompareEmptyResultsEncodeAsArray(t *testing.T) {
	h := NewComparisonHandler(&fakeService{}, 1<<20, utils.NewNopLogger())

	body, contentType := multipartBody(t, map[string]string{"invoice1": "a", "po1": "b"})
	req := httptest.NewRequest(http.MethodPost, "/api/compare/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Compare(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCompareRejectsOversizedUpload(t *testing.T) {
	h := NewComparisonHandler(&fakeService{}, 1<<20, utils.NewNopLogger())

	body, contentType := multipartBody(t, map[string]string{"invoice1": strings.Repeat("x", 2<<20)})
	req := httptest.NewRequest(http.MethodPost, "/api/compare/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Compare(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload exceeds 1MB limit")
}

func TestUnknownErrorsHideDetails(t *testing.T) {
	h := NewComparisonHandler(&fakeService{err: assert.AnError}, 1<<20, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ListModels(rec, httptest.NewRequest(http.MethodGet, "/api/models/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
}

func TestGetComparison(t *testing.T) {
	h := NewComparisonHandler(&fakeService{}, 1<<20, utils.NewNopLogger())
	r := mux.NewRouter()
	r.HandleFunc("/api/comparisons/{id}", h.GetComparison)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons/known", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListComparisonsValidatesLimit(t *testing.T) {
	h := NewComparisonHandler(&fakeService{}, 1<<20, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ListComparisons(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ListComparisons(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetComparisonFile(t *testing.T) {
	h := NewComparisonHandler(&fakeService{}, 1<<20, utils.NewNopLogger())
	r := mux.NewRouter()
	r.HandleFunc("/api/comparisons/{id}/files/{field}", h.GetComparisonFile)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons/known/files/invoice1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "facture été.pdf", params["filename"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comparisons/known/files/po2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Document not found"}`, rec.Body.String())
}
