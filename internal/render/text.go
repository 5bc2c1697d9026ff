package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BerylCAtieno/invoice-checker/internal/form"
)

// TextStyles holds the lipgloss styles of the terminal renderer.
type TextStyles struct {
	Title     lipgloss.Style
	Match     lipgloss.Style
	Mismatch  lipgloss.Style
	Muted     lipgloss.Style
	Bullet    lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Selection lipgloss.Style
}

// NewTextStyles builds styles bound to r, so colour is decided by the
// terminal the output goes to.
func NewTextStyles(r *lipgloss.Renderer) TextStyles {
	return TextStyles{
		Title:     r.NewStyle().Bold(true).Underline(true),
		Match:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Mismatch:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Bullet:    r.NewStyle().Foreground(lipgloss.Color("9")).PaddingLeft(2),
		Status:    r.NewStyle().Bold(true),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Selection: r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

// TextRenderer writes form state to a terminal or any other writer.
type TextRenderer struct {
	w      io.Writer
	styles TextStyles
}

// NewTextRenderer writes to w, detecting its colour support.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return NewTextRendererWithStyles(w, NewTextStyles(lipgloss.NewRenderer(w)))
}

func NewTextRendererWithStyles(w io.Writer, styles TextStyles) *TextRenderer {
	return &TextRenderer{w: w, styles: styles}
}

// Selection lists the selected documents, marking those that have a preview.
func (t *TextRenderer) Selection(st form.State) error {
	if st.SelectedCount() == 0 {
		_, err := io.WriteString(t.w, t.styles.Muted.Render("No documents selected.")+"\n")
		return err
	}

	var b strings.Builder
	for _, slots := range [][3]form.SlotView{st.Invoices, st.POs} {
		for _, s := range slots {
			if !s.Selected {
				continue
			}
			line := fmt.Sprintf("%s: %s (%s, %d bytes)", s.Label(), s.Filename, s.ContentType, s.Size)
			if s.Preview != "" {
				line += " [preview]"
			}
			b.WriteString(t.styles.Selection.Render(line))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// State writes the error line when one is set and the results when there are
// any. Nothing is written otherwise.
func (t *TextRenderer) State(st form.State) error {
	var b strings.Builder

	if st.Error != "" {
		b.WriteString(t.styles.Error.Render(st.Error))
		b.WriteString("\n")
	}

	if len(st.Results) > 0 {
		b.WriteString(t.styles.Title.Render("Comparison Results"))
		b.WriteString("\n")
		for _, v := range NewResultViews(st.Results) {
			b.WriteString("\n")
			t.writeResult(&b, v)
		}
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *TextRenderer) writeResult(b *strings.Builder, v ResultView) {
	headline := t.styles.Mismatch
	if v.Match {
		headline = t.styles.Match
	}

	b.WriteString(headline.Render(v.Headline) + "\n")
	b.WriteString(t.styles.Muted.Render(v.Pairing) + "\n")
	for _, c := range v.Checks {
		b.WriteString(c + "\n")
	}
	if len(v.Mismatches) > 0 {
		b.WriteString("Mismatches:\n")
		for _, m := range v.Mismatches {
			b.WriteString(t.styles.Bullet.Render("• "+m) + "\n")
		}
	}
	b.WriteString(t.styles.Status.Render(v.Status) + "\n")
}
