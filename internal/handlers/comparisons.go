package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/services"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

// multipartMemory is how much of a request is buffered in memory; larger
// files spill to temporary files.
const multipartMemory = 8 << 20

const defaultListLimit = 20

type ComparisonHandler struct {
	service       services.ComparisonService
	logger        *utils.Logger
	maxUploadSize int64
}

func NewComparisonHandler(service services.ComparisonService, maxUploadSize int64, logger *utils.Logger) *ComparisonHandler {
	return &ComparisonHandler{
		service:       service,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// Compare handles POST /api/compare/. Every form field is optional; missing
// slots are skipped and the service decides whether enough was sent.
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		h.respondError(w, utils.NewBadRequestError(h.sizeLimitMessage()))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req := &services.CompareRequest{}
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case err == nil:
		defer r.MultipartForm.RemoveAll()

		if req.Invoices, err = h.readSlots(r, models.KindInvoice); err != nil {
			h.respondError(w, err)
			return
		}
		if req.POs, err = h.readSlots(r, models.KindPO); err != nil {
			h.respondError(w, err)
			return
		}
	case errors.Is(err, http.ErrNotMultipart):
		// no files at all
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, utils.NewBadRequestError(h.sizeLimitMessage()))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	h.logger.Info("Comparison requested",
		"invoices", len(req.Invoices),
		"purchase_orders", len(req.POs))

	results, err := h.service.Compare(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if results == nil {
		results = []models.ComparisonResult{}
	}

	h.respondJSON(w, http.StatusOK, results)
}

func (h *ComparisonHandler) readSlots(r *http.Request, kind models.Kind) ([]models.Upload, error) {
	var uploads []models.Upload

	for i := 0; i < models.SlotsPerKind; i++ {
		field := kind.FieldName(i)

		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, utils.NewBadRequestError(fmt.Sprintf("Invalid upload in field %s", field))
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.logger.Error("Failed to read upload", "error", err, "field", field)
			return nil, utils.NewInternalError("Failed to read file")
		}

		uploads = append(uploads, models.Upload{
			Field:       field,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return uploads, nil
}

func (h *ComparisonHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListModels(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, names)
}

func (h *ComparisonHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Comparison ID is required"))
		return
	}

	c, err := h.service.GetComparison(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, c)
}

// GetComparisonFile serves an archived document inline under its uploaded name.
func (h *ComparisonHandler) GetComparisonFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	obj, err := h.service.DownloadFile(r.Context(), vars["id"], vars["field"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	if obj.Filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": obj.Filename}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Data); err != nil {
		h.logger.Error("Failed to write document", "error", err, "id", vars["id"], "field", vars["field"])
	}
}

func (h *ComparisonHandler) ListComparisons(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 100 {
			h.respondError(w, utils.NewBadRequestError("limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}

	list, err := h.service.ListComparisons(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if list == nil {
		list = []*models.Comparison{}
	}

	h.respondJSON(w, http.StatusOK, list)
}

func (h *ComparisonHandler) sizeLimitMessage() string {
	return fmt.Sprintf("Upload exceeds %dMB limit", h.maxUploadSize>>20)
}

func (h *ComparisonHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *ComparisonHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := utils.AsAppError(err); ok {
		status = appErr.StatusCode
		message = appErr.Message
	}

	h.logger.Error("Request error", "status", status, "error", err)

	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
