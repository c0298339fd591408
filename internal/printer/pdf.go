package printer

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
)

const (
	fontFamily = "ledger"
	coreFont   = "Helvetica"
	margin     = 15.0
	lineHeight = 7.0
)

// PDFRenderer lays composed units out with gofpdf. Columns run right to
// left, so the ordinal column is at the right edge and the amount column at
// the left.
type PDFRenderer struct {
	// FontPath is a UTF-8 TrueType font. Empty uses Helvetica, which
	// cannot show Arabic glyphs.
	FontPath string

	// PageSize is a gofpdf size name such as "A4".
	PageSize string

	Logger zerolog.Logger
}

// NewPDFRenderer creates a renderer from the print configuration.
func NewPDFRenderer(cfg config.PrintConfig, logger zerolog.Logger) *PDFRenderer {
	return &PDFRenderer{FontPath: cfg.FontPath, PageSize: cfg.PageSize, Logger: logger}
}

// ContentType is the MIME type of the rendered output.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension is the file extension of the rendered output.
func (r *PDFRenderer) Extension() string { return ".pdf" }

// Render writes the units as a PDF and returns the page count. A new page
// starts after every unit flagged PageBreakAfter.
func (r *PDFRenderer) Render(w io.Writer, units []Unit) (int, error) {
	size := r.PageSize
	if size == "" {
		size = "A4"
	}

	pdf := gofpdf.New("P", "mm", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)

	family, tr := coreFont, pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", r.FontPath)
		pdf.AddUTF8Font(fontFamily, "B", r.FontPath)
		family, tr = fontFamily, func(s string) string { return s }
	} else {
		r.Logger.Debug().Msg("no print font configured, Arabic text will not render")
	}

	p := &page{pdf: pdf, family: family, tr: tr}
	pageW, _ := pdf.GetPageSize()
	p.width = pageW - 2*margin

	pdf.AddPage()
	for _, unit := range units {
		p.unit(unit)
		if unit.PageBreakAfter {
			pdf.AddPage()
		}
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("failed to lay out document: %w", err)
	}
	pages := pdf.PageNo()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("failed to write document: %w", err)
	}
	return pages, nil
}

// page carries the drawing state of one render.
type page struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
	width  float64
}

func (p *page) font(style string, size float64) {
	p.pdf.SetFont(p.family, style, size)
}

func (p *page) unit(u Unit) {
	p.font("B", 15)
	p.pdf.CellFormat(p.width, 9, p.tr(u.Title), "", 1, "R", false, 0, "")

	p.font("", 10)
	for _, line := range u.Header {
		p.pdf.CellFormat(p.width, 5.5, p.tr(line), "", 1, "R", false, 0, "")
	}
	p.pdf.Ln(3)

	for _, t := range u.Tables {
		p.table(t)
	}
	if u.Final != nil {
		p.final(*u.Final)
	}
}

func (p *page) heading(title string) {
	p.font("B", 12)
	p.pdf.CellFormat(p.width, 8, p.tr(title), "", 1, "R", false, 0, "")
}

func (p *page) table(t TableBlock) {
	p.heading(t.Title)

	cols := len(t.Headers)
	if cols == 0 {
		return
	}
	colW := p.width / float64(cols)

	p.font("B", 9)
	p.pdf.SetFillColor(242, 245, 249)
	p.row(t.Headers, colW, true)

	p.font("", 9)
	for _, row := range t.Rows {
		p.row(row, colW, false)
	}

	p.font("B", 9)
	span := t.FooterSpan
	if span < 1 || span >= cols {
		span = cols - 1
	}
	if span < 1 {
		p.pdf.CellFormat(colW, lineHeight, p.tr(t.FooterTotal), "1", 1, "C", false, 0, "")
	} else {
		p.pdf.CellFormat(colW*float64(cols-span), lineHeight, p.tr(t.FooterTotal), "1", 0, "C", false, 0, "")
		p.pdf.CellFormat(colW*float64(span), lineHeight, p.tr(t.FooterLabel), "1", 1, "R", false, 0, "")
	}
	p.pdf.Ln(4)
}

// row draws cells from the last column to the first.
func (p *page) row(cells []string, colW float64, fill bool) {
	for i := len(cells) - 1; i >= 0; i-- {
		ln := 0
		if i == 0 {
			ln = 1
		}
		p.pdf.CellFormat(colW, lineHeight, p.tr(cells[i]), "1", ln, "C", fill, 0, "")
	}
}

func (p *page) final(f FinalBlock) {
	p.heading(f.Title)

	labelW := p.width * 0.6
	for _, line := range f.Lines {
		p.font("", 10)
		p.pdf.CellFormat(p.width-labelW, lineHeight, p.tr(line.Value), "1", 0, "C", false, 0, "")
		p.font("B", 10)
		p.pdf.SetFillColor(242, 245, 249)
		p.pdf.CellFormat(labelW, lineHeight, p.tr(line.Label), "1", 1, "R", true, 0, "")
	}

	if len(f.Signatures) == 0 {
		return
	}
	p.pdf.Ln(18)
	p.font("", 10)
	gap := 8.0
	sigW := (p.width - gap*float64(len(f.Signatures)-1)) / float64(len(f.Signatures))
	y := p.pdf.GetY()
	for i := len(f.Signatures) - 1; i >= 0; i-- {
		x := margin + float64(len(f.Signatures)-1-i)*(sigW+gap)
		p.pdf.Line(x, y, x+sigW, y)
		p.pdf.SetXY(x, y+1)
		p.pdf.CellFormat(sigW, lineHeight, p.tr(f.Signatures[i]), "", 0, "C", false, 0, "")
	}
	p.pdf.Ln(lineHeight + 2)
}
