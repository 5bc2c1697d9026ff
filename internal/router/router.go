package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/invoice-checker/internal/handlers"
	"github.com/BerylCAtieno/invoice-checker/internal/middleware"
	"github.com/BerylCAtieno/invoice-checker/internal/services"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

func NewRouter(service services.ComparisonService, maxUploadSize int64, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	h := handlers.NewComparisonHandler(service, maxUploadSize, logger)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Both spellings are accepted; clients post to the trailing-slash form.
	for _, path := range []string{"/compare/", "/compare"} {
		api.HandleFunc(path, h.Compare).Methods(http.MethodPost, http.MethodOptions)
	}
	for _, path := range []string{"/models/", "/models"} {
		api.HandleFunc(path, h.ListModels).Methods(http.MethodGet)
	}
	api.HandleFunc("/comparisons", h.ListComparisons).Methods(http.MethodGet)
	api.HandleFunc("/comparisons/{id}", h.GetComparison).Methods(http.MethodGet)
	api.HandleFunc("/comparisons/{id}/files/{field}", h.GetComparisonFile).Methods(http.MethodGet)

	return r
}
