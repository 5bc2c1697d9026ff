package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Prompts are the LLM instructions used to pull fields out of document text.
// Each must contain a single %s verb where the text is inserted.
type Prompts struct {
	Invoice string `toml:"invoice"`
	PO      string `toml:"po"`
}

type promptsFile struct {
	Prompts Prompts `toml:"prompts"`
}

const (
	DefaultInvoicePrompt = "You are an expert in extracting information from invoices and purchase orders. " +
		"Extract the following details and return them as a JSON object: invoice_number, vendor, " +
		"items (as a list of strings), and total_amount. Here is the text: %s"

	DefaultPOPrompt = "You are an expert in extracting information from invoices and purchase orders. " +
		"Extract the following details and return them as a JSON object: po_number, vendor, " +
		"items (as a list of strings), and total_amount. Here is the text: %s"
)

func DefaultPrompts() Prompts {
	return Prompts{Invoice: DefaultInvoicePrompt, PO: DefaultPOPrompt}
}

// LoadPrompts reads a TOML prompt override file. An empty path yields the
// defaults; prompts missing from the file keep their default.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("failed to read prompts file '%s': %w", path, err)
	}

	var file promptsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return prompts, fmt.Errorf("failed to parse prompts TOML: %w", err)
	}

	if file.Prompts.Invoice != "" {
		prompts.Invoice = file.Prompts.Invoice
	}
	if file.Prompts.PO != "" {
		prompts.PO = file.Prompts.PO
	}

	return prompts, nil
}
