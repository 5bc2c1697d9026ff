// Package form holds the state of the invoice/PO upload form: six fixed
// document slots with their previews, the latest comparison results, and the
// loading and error flags. Front ends drive it through Form's methods and
// render State snapshots.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BerylCAtieno/invoice-checker/internal/client"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

// ErrSubmissionInFlight is returned by Submit and Start while an earlier
// submission has not finished.
var ErrSubmissionInFlight = errors.New("a comparison is already in progress")

// Comparer sends the selected documents to the comparison service.
type Comparer interface {
	Compare(ctx context.Context, uploads []models.Upload) ([]models.ComparisonResult, error)
}

type slot struct {
	doc     *Document
	preview string
	// gen increases on every selection so a preview encoded for an older
	// selection is discarded.
	gen uint64
}

// Form holds the three invoice and three purchase order slots of one user,
// together with the outcome of the last submission. It is safe for
// concurrent use.
type Form struct {
	comparer  Comparer
	previewer PreviewFunc
	logger    *utils.Logger

	mu       sync.Mutex
	invoices [models.SlotsPerKind]slot
	pos      [models.SlotsPerKind]slot
	results  []models.ComparisonResult
	loading  bool
	errMsg   string

	// pending counts preview encodes still running; idle is closed when it
	// drops to zero.
	pending int
	idle    chan struct{}
}

// New returns an empty form that submits through comparer.
func New(comparer Comparer, logger *utils.Logger) *Form {
	return &Form{
		comparer:  comparer,
		previewer: DataURI,
		logger:    logger,
	}
}

// SetPreviewer replaces the preview encoder. It affects later selections only.
func (f *Form) SetPreviewer(fn PreviewFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewer = fn
}

func (f *Form) slots(kind models.Kind) (*[models.SlotsPerKind]slot, error) {
	switch kind {
	case models.KindInvoice:
		return &f.invoices, nil
	case models.KindPO:
		return &f.pos, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

// SelectFile stores a document in the slot at index (0-based) of kind. The
// document counts as selected at once; its preview is encoded in the
// background and replaces nothing but this slot's preview. Any file type and
// size is accepted. The form keeps data; callers must not modify it afterwards.
func (f *Form) SelectFile(index int, kind models.Kind, data []byte, filename, mimeType string) error {
	if index < 0 || index >= models.SlotsPerKind {
		return fmt.Errorf("slot index %d out of range [0,%d]", index, models.SlotsPerKind-1)
	}

	f.mu.Lock()
	slots, err := f.slots(kind)
	if err != nil {
		f.mu.Unlock()
		return err
	}

	doc := &Document{Name: filename, ContentType: mimeType, Data: data}
	s := &slots[index]
	s.gen++
	s.doc = doc
	s.preview = ""
	gen := s.gen
	previewer := f.previewer

	f.pending++
	if f.pending == 1 {
		f.idle = make(chan struct{})
	}
	f.mu.Unlock()

	f.logger.Debug("Document selected",
		"field", kind.FieldName(index),
		"filename", filename,
		"content_type", mimeType,
		"size", len(data))

	go f.encodePreview(s, gen, previewer, *doc)
	return nil
}

func (f *Form) encodePreview(s *slot, gen uint64, previewer PreviewFunc, doc Document) {
	preview, err := previewer(doc)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		// The preview silently stays empty; the document is still submitted.
		f.logger.Debug("Preview unavailable", "filename", doc.Name, "error", err)
	} else if s.gen == gen {
		s.preview = preview
	}

	f.pending--
	if f.pending == 0 {
		close(f.idle)
	}
}

// WaitPreviews blocks until every preview encode started so far has finished.
func (f *Form) WaitPreviews(ctx context.Context) error {
	f.mu.Lock()
	if f.pending == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins a submission and returns a channel that yields its outcome
// once. The loading flag is already set when Start returns.
func (f *Form) Start(ctx context.Context) (<-chan error, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	f.loading = true
	f.errMsg = ""
	f.results = nil
	uploads := f.uploadsLocked()
	f.mu.Unlock()

	f.logger.Info("Submitting comparison", "files", len(uploads))

	done := make(chan error, 1)
	go func() {
		done <- f.run(ctx, uploads)
		close(done)
	}()
	return done, nil
}

// Submit posts every selected document and waits for the answer. The result
// list is replaced on success; on failure it stays empty and Error reports
// the service's message or the generic one.
func (f *Form) Submit(ctx context.Context) error {
	done, err := f.Start(ctx)
	if err != nil {
		return err
	}
	return <-done
}

func (f *Form) run(ctx context.Context, uploads []models.Upload) (err error) {
	var results []models.ComparisonResult

	defer func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.loading = false
		if err != nil {
			f.errMsg = userMessage(err)
			f.results = nil
			return
		}
		f.results = results
	}()

	results, err = f.comparer.Compare(ctx, uploads)
	if err != nil {
		f.logger.Error("Comparison failed", "error", err)
		return err
	}
	if results == nil {
		results = []models.ComparisonResult{}
	}

	f.logger.Info("Comparison finished", "results", len(results))
	return nil
}

func userMessage(err error) string {
	var cerr *client.Error
	if errors.As(err, &cerr) {
		return cerr.UserMessage()
	}
	return client.GenericErrorMessage
}

// uploadsLocked lists the selected documents in field order, invoice1..po3.
func (f *Form) uploadsLocked() []models.Upload {
	var uploads []models.Upload
	for _, kind := range []models.Kind{models.KindInvoice, models.KindPO} {
		slots, _ := f.slots(kind)
		for i, s := range slots {
			if s.doc == nil {
				continue
			}
			uploads = append(uploads, models.Upload{
				Field:       kind.FieldName(i),
				Filename:    s.doc.Name,
				ContentType: s.doc.ContentType,
				Data:        s.doc.Data,
			})
		}
	}
	return uploads
}

// State returns a copy of the form suitable for rendering.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := State{
		Loading: f.loading,
		Error:   f.errMsg,
	}
	if f.results != nil {
		st.Results = make([]models.ComparisonResult, len(f.results))
		copy(st.Results, f.results)
	}
	for i := range models.SlotsPerKind {
		st.Invoices[i] = f.invoices[i].view(models.KindInvoice, i)
		st.POs[i] = f.pos[i].view(models.KindPO, i)
	}
	return st
}

func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}
