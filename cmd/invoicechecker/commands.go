package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/invoice-checker/internal/client"
	"github.com/BerylCAtieno/invoice-checker/internal/form"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/render"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

func (o *rootOptions) client() (*client.Client, error) {
	timeout, err := time.ParseDuration(o.timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid --timeout: %w", err)
	}
	return client.New(o.url, timeout), nil
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var (
		invoices [models.SlotsPerKind]string
		pos      [models.SlotsPerKind]string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Upload invoices and purchase orders and print the comparison",
		Example: `  invoicechecker compare --invoice1 inv-001.pdf --po1 po-001.pdf
  invoicechecker compare --invoice1 a.pdf --invoice2 b.docx --po1 a-po.pdf --po2 b-po.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.NewLoggerTo(cmd.ErrOrStderr(), opts.logLevel)

			c, err := opts.client()
			if err != nil {
				return err
			}
			f := form.New(c, logger)

			for i := range models.SlotsPerKind {
				if err := selectPath(f, models.KindInvoice, i, invoices[i]); err != nil {
					return err
				}
				if err := selectPath(f, models.KindPO, i, pos[i]); err != nil {
					return err
				}
			}

			if err := f.WaitPreviews(ctx); err != nil {
				return err
			}

			out := render.NewTextRenderer(cmd.OutOrStdout())
			if !asJSON {
				if err := out.Selection(f.State()); err != nil {
					return err
				}
			}

			submitErr := f.Submit(ctx)
			st := f.State()

			if asJSON && submitErr == nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st.Results)
			}

			if asJSON {
				// The error goes to stderr so stdout stays valid JSON or empty.
				fmt.Fprintln(cmd.ErrOrStderr(), st.Error)
			} else if err := out.State(st); err != nil {
				return err
			}

			if submitErr != nil {
				return errReported
			}
			if len(st.Results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invoice/PO pairs were compared.")
			}
			return nil
		},
	}

	for i := range models.SlotsPerKind {
		cmd.Flags().StringVar(&invoices[i], models.KindInvoice.FieldName(i), "", fmt.Sprintf("Invoice %d file", i+1))
		cmd.Flags().StringVar(&pos[i], models.KindPO.FieldName(i), "", fmt.Sprintf("Purchase order %d file", i+1))
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw results as JSON")
	return cmd
}

// selectPath reads a file from disk into a slot, guessing its MIME type from
// the extension and then from its content. An empty path leaves the slot empty.
func selectPath(f *form.Form, kind models.Kind, index int, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return f.SelectFile(index, kind, data, filepath.Base(path), detectContentType(path, data))
}

func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the configured LLM provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			names, err := c.ListModels(cmd.Context())
			if err != nil {
				var cerr *client.Error
				if errors.As(err, &cerr) && cerr.Message != "" {
					return errors.New(cerr.Message)
				}
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
