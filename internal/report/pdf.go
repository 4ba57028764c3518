package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"go-lab-sample-tracker/internal/lab"
)

// Letterhead is the laboratory identity printed on every page.
type Letterhead struct {
	LabName       string
	LabAddress    string
	Accreditation string
}

const (
	bodyFont    = 8.0
	headFont    = 8.0
	lineHeight  = 3.6
	cellPadding = 1.2
	pageMargin  = 12.0
	footerSpace = 14.0
)

type document struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	title string
	lh    Letterhead
}

// shiftTitle marks the title of a report for a shift whose report has not
// been approved yet.
func shiftTitle(title string, sh lab.Shift) string {
	if !sh.Approved() {
		return title + " (DRAFT)"
	}
	return title
}

func newDocument(orientation, title string, lh Letterhead, created time.Time) *document {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, footerSpace)
	pdf.AliasNbPages("")
	pdf.SetTitle(title, true)
	pdf.SetCreator(lh.LabName, true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), title: title, lh: lh}
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	return d
}

func (d *document) header() {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(20, 40, 80)
	pdf.CellFormat(0, 6, d.tr(d.lh.LabName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(90, 90, 90)
	if d.lh.LabAddress != "" {
		pdf.CellFormat(0, 4, d.tr(d.lh.LabAddress), "", 1, "L", false, 0, "")
	}
	if d.lh.Accreditation != "" {
		pdf.CellFormat(0, 4, d.tr(d.lh.Accreditation), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, d.tr(d.title), "", 1, "L", false, 0, "")
	w, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.SetDrawColor(20, 40, 80)
	pdf.Line(pageMargin, y, w-pageMargin, y)
	pdf.Ln(3)
}

func (d *document) footer() {
	pdf := d.pdf
	pdf.SetY(-10)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (d *document) usableWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	return w - 2*pageMargin
}

// ensureSpace starts a new page when h millimetres would run into the footer.
func (d *document) ensureSpace(h float64) bool {
	_, pageH := d.pdf.GetPageSize()
	if d.pdf.GetY()+h <= pageH-footerSpace {
		return false
	}
	d.pdf.AddPage()
	return true
}

func (d *document) heading(text string) {
	d.ensureSpace(10)
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.SetTextColor(20, 40, 80)
	d.pdf.CellFormat(0, 6, d.tr(text), "", 1, "L", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) paragraph(text string, size float64) {
	width := d.usableWidth()
	lines := WrapLines(text, width, size)
	lh := size * ptToMM * 1.35
	for _, line := range lines {
		d.ensureSpace(lh)
		d.pdf.SetFont("Helvetica", "", size)
		d.pdf.SetX(pageMargin)
		d.pdf.CellFormat(width, lh, d.tr(line), "", 1, "L", false, 0, "")
	}
}

// keyValues prints label/value pairs in two columns of pairs.
func (d *document) keyValues(pairs [][2]string) {
	half := d.usableWidth() / 2
	labelW := 34.0
	cols := []Column{{Width: labelW}, {Width: half - labelW}, {Width: labelW}, {Width: half - labelW}}
	for i := 0; i < len(pairs); i += 2 {
		cells := []string{pairs[i][0], pairs[i][1], "", ""}
		if i+1 < len(pairs) {
			cells[2], cells[3] = pairs[i+1][0], pairs[i+1][1]
		}
		row := LayoutRow(cols, cells, bodyFont, lineHeight, 0.6)
		d.ensureSpace(row.Height)
		y := d.pdf.GetY()
		x := pageMargin
		for c, col := range cols {
			style := ""
			if c%2 == 0 {
				style = "B"
			}
			d.pdf.SetFont("Helvetica", style, bodyFont)
			for l, line := range row.Lines[c] {
				d.pdf.SetXY(x+0.6, y+0.6+float64(l)*lineHeight)
				d.pdf.CellFormat(col.Width-1.2, lineHeight, d.tr(line), "", 0, "L", false, 0, "")
			}
			x += col.Width
		}
		d.pdf.SetXY(pageMargin, y+row.Height)
	}
}

type rowStyle struct {
	fill    bool
	r, g, b int
}

func (d *document) tableHeader(cols []Column) {
	d.pdf.SetFont("Helvetica", "B", headFont)
	d.drawRow(cols, LayoutRow(cols, headersOf(cols), headFont, lineHeight, cellPadding), rowStyle{fill: true, r: 220, g: 228, b: 240})
}

// table draws rows sized by LayoutRow with each cell centred vertically,
// repeating the header on every page.
func (d *document) table(cols []Column, rows [][]string, style func(i int) rowStyle) {
	headerH := LayoutRow(cols, headersOf(cols), headFont, lineHeight, cellPadding).Height
	d.ensureSpace(headerH + lineHeight + 2*cellPadding)
	d.tableHeader(cols)
	for i, cells := range rows {
		row := LayoutRow(cols, cells, bodyFont, lineHeight, cellPadding)
		if d.ensureSpace(row.Height) {
			d.tableHeader(cols)
		}
		st := rowStyle{}
		if style != nil {
			st = style(i)
		}
		d.pdf.SetFont("Helvetica", "", bodyFont)
		d.drawRow(cols, row, st)
	}
}

func headersOf(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func (d *document) drawRow(cols []Column, row RowLayout, st rowStyle) {
	pdf := d.pdf
	y := pdf.GetY()
	x := pageMargin
	pdf.SetDrawColor(160, 160, 160)
	for i, col := range cols {
		box := "D"
		if st.fill {
			pdf.SetFillColor(st.r, st.g, st.b)
			box = "FD"
		}
		pdf.Rect(x, y, col.Width, row.Height, box)

		lines := row.Lines[i]
		top := y + cellPadding + CenterOffset(len(lines), row.Max, lineHeight)
		align := col.Align
		if align == "" {
			align = "L"
		}
		for l, line := range lines {
			pdf.SetXY(x+cellPadding, top+float64(l)*lineHeight)
			pdf.CellFormat(col.Width-2*cellPadding, lineHeight, d.tr(line), "", 0, align, false, 0, "")
		}
		x += col.Width
	}
	pdf.SetXY(pageMargin, y+row.Height)
}

// signatureLine prints a labelled blank line for handwritten sign-off.
func (d *document) signatureLine(label, value string) {
	d.ensureSpace(10)
	d.pdf.SetFont("Helvetica", "B", bodyFont)
	d.pdf.SetX(pageMargin)
	d.pdf.CellFormat(40, 8, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", bodyFont)
	d.pdf.CellFormat(d.usableWidth()-40, 8, d.tr(value), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
