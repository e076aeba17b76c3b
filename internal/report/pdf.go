package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/spigell/resumematch/internal/sanitize"
)

const (
	DefaultSectionLimit = 1000
	truncationMarker    = "..."

	reportTitle   = "ResumeMatch Pro Analysis Report"
	fallbackTitle = "Resume Analysis Report"
	fallbackBody  = "Report generation encountered an error. Please try again."

	defaultFont = "Arial"
)

type PDFOptions struct {
	// SectionLimit caps each text body in runes. Zero means DefaultSectionLimit.
	SectionLimit int
	// Font must be one of the fpdf core fonts. Empty means Arial.
	Font string
	Now  time.Time
	// Compress enables stream compression.
	Compress bool
}

var errRender = errors.New("render pdf")

// PDF renders the report. When rendering fails a minimal fallback document is
// returned with fallback set and the render error; data is nil only if the
// fallback fails too.
func (r *Report) PDF(opts PDFOptions) ([]byte, bool, error) {
	if opts.SectionLimit <= 0 {
		opts.SectionLimit = DefaultSectionLimit
	}
	if opts.Font == "" {
		opts.Font = defaultFont
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	out, err := r.renderPDF(opts)
	if err == nil {
		return out, false, nil
	}

	fallback, ferr := renderFallbackPDF(opts)
	if ferr != nil {
		return nil, true, fmt.Errorf("%w: %v; fallback: %v", errRender, err, ferr)
	}
	return fallback, true, fmt.Errorf("%w: %v", errRender, err)
}

func (r *Report) renderPDF(opts PDFOptions) ([]byte, error) {
	pdf := newDocument(opts)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(sanitize.Latin1(s)) }
	section := func(title, body string) {
		body = sanitize.Truncate(body, opts.SectionLimit, truncationMarker)
		pdf.MultiCell(0, 6, text(title+"\n"+body), "", "", false)
		pdf.Ln(4)
	}

	pdf.SetTitle(reportTitle, false)
	pdf.AddPage()
	pdf.SetFont(opts.Font, "", 14)
	pdf.CellFormat(0, 10, text(reportTitle), "", 1, "C", false, 0, "")
	pdf.Ln(5)
	pdf.SetFont(opts.Font, "", 11)

	section("Job Description:", r.JobDescription)

	if r.Has(KeyProfileFit) {
		section("Profile Fit Evaluation:", r.ProfileFit)
	}
	if r.Has(KeyKeywordMatch) {
		section("Keyword Match Results:", r.KeywordMatch)
	}
	if r.Has(KeyCategories) {
		pdf.MultiCell(0, 6, text("Category Scores:"), "", "", false)
		for _, c := range r.Categories {
			pdf.MultiCell(0, 6, text(fmt.Sprintf("  %s: %d%%", c.Name, c.Score)), "", "", false)
		}
		pdf.Ln(2)
		if r.SelectionPercentage != nil {
			pdf.MultiCell(0, 6, text(fmt.Sprintf("Selection Percentage (average): %d%%", *r.SelectionPercentage)), "", "", false)
		}
		pdf.Ln(4)
	}
	if r.Has(KeyQAAnswer) {
		title := "Q&A:"
		if r.QAQuestion != "" {
			title = "Q&A: " + r.QAQuestion
		}
		section(title, r.QAAnswer)
	}

	pdf.SetFont(opts.Font, "", 8)
	pdf.CellFormat(0, 10, text("Generated on "+opts.Now.Format("2006-01-02 15:04:05")), "", 1, "C", false, 0, "")

	return output(pdf)
}

func renderFallbackPDF(opts PDFOptions) ([]byte, error) {
	pdf := newDocument(opts)
	pdf.AddPage()
	pdf.SetFont(defaultFont, "", 12)
	pdf.CellFormat(0, 10, fallbackTitle, "", 1, "C", false, 0, "")
	pdf.Ln(5)
	pdf.MultiCell(0, 6, fallbackBody, "", "", false)
	return output(pdf)
}

func newDocument(opts PDFOptions) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetCreator("resumematch", false)
	pdf.SetCreationDate(opts.Now)
	return pdf
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
