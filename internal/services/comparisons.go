package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/invoice-checker/internal/analyzer"
	"github.com/BerylCAtieno/invoice-checker/internal/extractor"
	"github.com/BerylCAtieno/invoice-checker/internal/llm"
	"github.com/BerylCAtieno/invoice-checker/internal/matcher"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/repository"
	"github.com/BerylCAtieno/invoice-checker/internal/storage"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

const (
	MsgLLMNotConfigured = "LLM API key not configured. Please set LLM_API_KEY."
	MsgMissingDocuments = "Please upload at least one invoice and one purchase order."
	MsgUnparseable      = "Could not parse data from the model."
)

// CompareRequest holds the uploaded documents in form order, empty slots removed.
type CompareRequest struct {
	Invoices []models.Upload
	POs      []models.Upload
}

type ComparisonService interface {
	Compare(ctx context.Context, req *CompareRequest) ([]models.ComparisonResult, error)
	ListModels(ctx context.Context) ([]string, error)
	GetComparison(ctx context.Context, id string) (*models.Comparison, error)
	ListComparisons(ctx context.Context, limit int) ([]*models.Comparison, error)
	DownloadFile(ctx context.Context, id, field string) (*storage.Object, error)
}

// Deps are the collaborators of the comparison service. Analyzer is nil when
// no LLM key is configured; Storage is nil when archiving is disabled.
type Deps struct {
	Repo        repository.Repository
	Storage     storage.Storage
	Analyzer    analyzer.Analyzer
	ModelLister llm.ModelLister
	Concurrency int
}

type comparisonService struct {
	repo        repository.Repository
	storage     storage.Storage
	analyzer    analyzer.Analyzer
	lister      llm.ModelLister
	concurrency int
	logger      *utils.Logger
}

func NewService(deps Deps, logger *utils.Logger) ComparisonService {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &comparisonService{
		repo:        deps.Repo,
		storage:     deps.Storage,
		analyzer:    deps.Analyzer,
		lister:      deps.ModelLister,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *comparisonService) Compare(ctx context.Context, req *CompareRequest) ([]models.ComparisonResult, error) {
	if s.analyzer == nil {
		return nil, utils.NewBadRequestError(MsgLLMNotConfigured)
	}
	if len(req.Invoices) == 0 || len(req.POs) == 0 {
		return nil, utils.NewBadRequestError(MsgMissingDocuments)
	}

	run := &models.Comparison{
		ID:               utils.GenerateID(),
		InvoiceFilenames: filenames(req.Invoices),
		POFilenames:      filenames(req.POs),
		CreatedAt:        time.Now(),
	}
	if err := s.repo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to save comparison", "error", err, "id", run.ID)
		return nil, utils.NewInternalError("Failed to save comparison")
	}

	archived := s.archive(ctx, run.ID, req)

	// The i-th invoice is checked against the i-th purchase order. Invoices
	// without a partner are left out of the results.
	pairs := min(len(req.Invoices), len(req.POs))
	results := make([]models.ComparisonResult, pairs)
	errs := make([]error, pairs)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := 0; i < pairs; i++ {
		g.Go(func() error {
			result, err := s.comparePair(ctx, req.Invoices[i], req.POs[i])
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	_ = g.Wait()

	// report the failure of the earliest pair so the answer does not depend on timing
	for i, err := range errs {
		if err == nil {
			continue
		}
		appErr, ok := utils.AsAppError(err)
		if !ok {
			appErr = utils.WrapInternalError("Internal server error", err)
		}
		s.logger.Error("Comparison failed", "id", run.ID, "pair", i+1, "error", err)
		if ferr := s.repo.Fail(ctx, run.ID, appErr.Message); ferr != nil {
			s.logger.Error("Failed to record comparison failure", "error", ferr, "id", run.ID)
		}
		s.discard(ctx, archived)
		return nil, appErr
	}

	if err := s.repo.Complete(ctx, run.ID, results); err != nil {
		s.logger.Error("Failed to save comparison results", "error", err, "id", run.ID)
		return nil, utils.NewInternalError("Failed to save comparison results")
	}

	matched := 0
	for _, r := range results {
		if r.Match {
			matched++
		}
	}
	s.logger.Info("Comparison completed",
		"id", run.ID,
		"pairs", pairs,
		"matched", matched,
		"unpaired_invoices", len(req.Invoices)-pairs)

	return results, nil
}

func (s *comparisonService) comparePair(ctx context.Context, invoice, po models.Upload) (*models.ComparisonResult, error) {
	invoiceText, err := extractor.Extract(invoice.Filename, invoice.ContentType, invoice.Data)
	if err != nil {
		s.logger.Warn("Failed to extract text", "error", err, "field", invoice.Field, "filename", invoice.Filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Error reading file: %v", err))
	}
	poText, err := extractor.Extract(po.Filename, po.ContentType, po.Data)
	if err != nil {
		s.logger.Warn("Failed to extract text", "error", err, "field", po.Field, "filename", po.Filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Error reading file: %v", err))
	}

	// Both replies are requested before either is inspected, so a failed
	// invoice request is reported ahead of a failed PO request, and either
	// ahead of a reply that cannot be parsed.
	invoiceReply, invoiceErr := s.analyzer.Generate(ctx, models.KindInvoice, invoiceText)
	poReply, poErr := s.analyzer.Generate(ctx, models.KindPO, poText)
	if invoiceErr != nil {
		return nil, analysisError("invoice", invoiceErr)
	}
	if poErr != nil {
		return nil, analysisError("purchase order", poErr)
	}

	invoiceFields, err := s.analyzer.Parse(models.KindInvoice, invoiceReply)
	if err != nil {
		return nil, analysisError("invoice", err)
	}
	poFields, err := s.analyzer.Parse(models.KindPO, poReply)
	if err != nil {
		return nil, analysisError("purchase order", err)
	}

	result := matcher.Compare(invoiceFields, poFields)
	return &result, nil
}

func analysisError(document string, err error) error {
	if errors.Is(err, analyzer.ErrUnparseable) {
		return utils.WrapInternalError(MsgUnparseable, err)
	}

	cause := err
	var genErr *analyzer.GenerationError
	if errors.As(err, &genErr) {
		cause = genErr.Err
	}
	return utils.WrapInternalError(fmt.Sprintf("Error processing %s: %v", document, cause), err)
}

// archive stores the submitted documents and returns the keys written.
// Archiving is best effort and never fails the comparison.
func (s *comparisonService) archive(ctx context.Context, id string, req *CompareRequest) []string {
	if s.storage == nil {
		return nil
	}

	var keys []string
	for _, group := range [][]models.Upload{req.Invoices, req.POs} {
		for _, up := range group {
			key := storage.ObjectKey(id, up.Field)
			obj := storage.Object{Filename: up.Filename, ContentType: up.ContentType, Data: up.Data}
			if err := s.storage.Upload(ctx, key, obj); err != nil {
				s.logger.Warn("Failed to archive document", "error", err, "key", key)
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys
}

// discard removes the documents of a failed run.
func (s *comparisonService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to remove archived document", "error", err, "key", key)
		}
	}
}

func (s *comparisonService) DownloadFile(ctx context.Context, id, field string) (*storage.Object, error) {
	if !models.IsUploadField(field) {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unknown document field %s", field))
	}
	if s.storage == nil {
		return nil, utils.NewNotFoundError("Document archiving is disabled")
	}

	if _, err := s.GetComparison(ctx, id); err != nil {
		return nil, err
	}

	obj, err := s.storage.Download(ctx, storage.ObjectKey(id, field))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to download document", "error", err, "id", id, "field", field)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	return obj, nil
}

func (s *comparisonService) ListModels(ctx context.Context) ([]string, error) {
	if s.analyzer == nil {
		return nil, utils.NewBadRequestError(MsgLLMNotConfigured)
	}
	if s.lister == nil {
		return []string{}, nil
	}

	names, err := s.lister.ListModels(ctx)
	if err != nil {
		s.logger.Error("Failed to list models", "error", err)
		return nil, utils.NewInternalError("Failed to list models")
	}
	return names, nil
}

func (s *comparisonService) GetComparison(ctx context.Context, id string) (*models.Comparison, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get comparison", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve comparison")
	}
	if c == nil {
		return nil, utils.NewNotFoundError("Comparison not found")
	}
	return c, nil
}

func (s *comparisonService) ListComparisons(ctx context.Context, limit int) ([]*models.Comparison, error) {
	list, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list comparisons", "error", err)
		return nil, utils.NewInternalError("Failed to list comparisons")
	}
	return list, nil
}

func filenames(uploads []models.Upload) []string {
	names := make([]string, 0, len(uploads))
	for _, up := range uploads {
		names = append(names, strings.TrimSpace(up.Filename))
	}
	return names
}
