package report

import (
	"strings"
	"unicode"
)

const ptToMM = 25.4 / 72

// glyphFactor approximates a Helvetica glyph width as a fraction of the font size.
func glyphFactor(r rune) float64 {
	switch {
	case strings.ContainsRune("iljtfI.,;:!|'()[] ", r):
		return 0.3
	case strings.ContainsRune("mwMW@%", r):
		return 0.85
	case unicode.IsUpper(r):
		return 0.67
	case unicode.IsDigit(r):
		return 0.556
	default:
		return 0.5
	}
}

func charWidth(r rune, fontSize float64) float64 {
	return glyphFactor(r) * fontSize * ptToMM
}

// TextWidth estimates the printed width of s in millimetres.
func TextWidth(s string, fontSize float64) float64 {
	w := 0.0
	for _, r := range s {
		w += charWidth(r, fontSize)
	}
	return w
}

// WrapLines breaks text into lines no wider than width using greedy
// word-boundary fill. Words wider than a line are split by character and
// explicit newlines always start a new line.
func WrapLines(text string, width, fontSize float64) []string {
	if width <= 0 {
		return []string{text}
	}
	space := charWidth(' ', fontSize)
	out := make([]string, 0, 1)

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		var (
			line  strings.Builder
			lineW float64
		)
		flush := func() {
			out = append(out, line.String())
			line.Reset()
			lineW = 0
		}

		for _, word := range words {
			ww := TextWidth(word, fontSize)
			if ww > width {
				if lineW > 0 {
					flush()
				}
				for _, r := range word {
					cw := charWidth(r, fontSize)
					if lineW+cw > width && lineW > 0 {
						flush()
					}
					line.WriteRune(r)
					lineW += cw
				}
				continue
			}
			switch {
			case lineW == 0:
				line.WriteString(word)
				lineW = ww
			case lineW+space+ww <= width:
				line.WriteByte(' ')
				line.WriteString(word)
				lineW += space + ww
			default:
				flush()
				line.WriteString(word)
				lineW = ww
			}
		}
		if lineW > 0 {
			flush()
		}
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

// EstimateLines is the number of lines text occupies in a cell of width mm.
func EstimateLines(text string, width, fontSize float64) int {
	return len(WrapLines(text, width, fontSize))
}

// Column describes one table column.
type Column struct {
	Header string
	Width  float64
	Align  string
}

// RowLayout is the sizing of one table row.
type RowLayout struct {
	Lines  [][]string
	Max    int
	Height float64
}

// LayoutRow wraps every cell to its column and sizes the row to the tallest
// cell plus vertical padding on both sides.
func LayoutRow(cols []Column, cells []string, fontSize, lineHeight, padding float64) RowLayout {
	row := RowLayout{Lines: make([][]string, len(cols)), Max: 1}
	for i, col := range cols {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		row.Lines[i] = WrapLines(text, col.Width-2*padding, fontSize)
		if n := len(row.Lines[i]); n > row.Max {
			row.Max = n
		}
	}
	row.Height = float64(row.Max)*lineHeight + 2*padding
	return row
}

// CenterOffset is the top margin that vertically centres a cell of cellLines
// inside a row of rowLines.
func CenterOffset(cellLines, rowLines int, lineHeight float64) float64 {
	if cellLines >= rowLines {
		return 0
	}
	return float64(rowLines-cellLines) * lineHeight / 2
}
