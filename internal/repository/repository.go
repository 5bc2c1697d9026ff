package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Comparison) error
	Complete(ctx context.Context, id string, results []models.ComparisonResult) error
	Fail(ctx context.Context, id, message string) error
	GetByID(ctx context.Context, id string) (*models.Comparison, error)
	List(ctx context.Context, limit int) ([]*models.Comparison, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type comparisonRow struct {
	ID               string         `db:"id"`
	InvoiceFilenames string         `db:"invoice_filenames"`
	POFilenames      string         `db:"po_filenames"`
	Results          sql.NullString `db:"results"`
	Error            sql.NullString `db:"error"`
	CreatedAt        time.Time      `db:"created_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

func (row *comparisonRow) toModel() (*models.Comparison, error) {
	c := &models.Comparison{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
	}

	if err := json.Unmarshal([]byte(row.InvoiceFilenames), &c.InvoiceFilenames); err != nil {
		return nil, fmt.Errorf("decode invoice filenames: %w", err)
	}
	if err := json.Unmarshal([]byte(row.POFilenames), &c.POFilenames); err != nil {
		return nil, fmt.Errorf("decode po filenames: %w", err)
	}
	if row.Results.Valid && row.Results.String != "" {
		if err := json.Unmarshal([]byte(row.Results.String), &c.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	if row.Error.Valid {
		msg := row.Error.String
		c.Error = &msg
	}
	if row.CompletedAt.Valid {
		completed := row.CompletedAt.Time
		c.CompletedAt = &completed
	}

	return c, nil
}

func (r *repository) Create(ctx context.Context, c *models.Comparison) error {
	invoiceNames, err := json.Marshal(nonNil(c.InvoiceFilenames))
	if err != nil {
		return err
	}
	poNames, err := json.Marshal(nonNil(c.POFilenames))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO comparisons (id, invoice_filenames, po_filenames, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, c.ID, string(invoiceNames), string(poNames), c.CreatedAt.UTC())
	return err
}

func (r *repository) Complete(ctx context.Context, id string, results []models.ComparisonResult) error {
	if results == nil {
		results = []models.ComparisonResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return err
	}

	query := `
		UPDATE comparisons
		SET results = ?, completed_at = ?
		WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx, query, string(resultsJSON), time.Now().UTC(), id)
	return err
}

func (r *repository) Fail(ctx context.Context, id, message string) error {
	query := `
		UPDATE comparisons
		SET error = ?, completed_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, message, time.Now().UTC(), id)
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Comparison, error) {
	var row comparisonRow

	query := `
		SELECT id, invoice_filenames, po_filenames, results, error, created_at, completed_at
		FROM comparisons
		WHERE id = ?
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return row.toModel()
}

func (r *repository) List(ctx context.Context, limit int) ([]*models.Comparison, error) {
	var rows []comparisonRow

	query := `
		SELECT id, invoice_filenames, po_filenames, results, error, created_at, completed_at
		FROM comparisons
		ORDER BY created_at DESC
		LIMIT ?
	`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	out := make([]*models.Comparison, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
