package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlyphFactor(t *testing.T) {
	cases := map[rune]float64{'i': 0.3, ' ': 0.3, 'm': 0.85, 'W': 0.85, 'A': 0.67, '7': 0.556, 'a': 0.5}
	for r, want := range cases {
		assert.InDelta(t, want, glyphFactor(r), 1e-9, string(r))
	}
	assert.InDelta(t, 0.5*10*ptToMM, TextWidth("a", 10), 1e-9)
}

func TestWrapLines(t *testing.T) {
	lines := WrapLines("north east corner of the main removal enclosure", 20, bodyFont)
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, TextWidth(l, bodyFont), 20.0, l)
	}
	assert.Equal(t, "north east corner of the main removal enclosure", strings.Join(lines, " "))
}

func TestWrapLines_SplitsLongWords(t *testing.T) {
	word := strings.Repeat("x", 60)
	lines := WrapLines(word, 15, bodyFont)
	assert.Greater(t, len(lines), 1)
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestWrapLines_KeepsNewlines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, WrapLines("a\r\n\nb", 100, bodyFont))
	assert.Equal(t, []string{""}, WrapLines("", 100, bodyFont))
	assert.Equal(t, 1, EstimateLines("short", 100, bodyFont))
}

func TestLayoutRow(t *testing.T) {
	cols := []Column{{Width: 12}, {Width: 60}}
	row := LayoutRow(cols, []string{"a long location that wraps", "ok"}, bodyFont, lineHeight, cellPadding)

	assert.Equal(t, len(row.Lines[0]), row.Max)
	assert.Greater(t, row.Max, 1)
	assert.InDelta(t, float64(row.Max)*lineHeight+2*cellPadding, row.Height, 1e-9)

	// missing cells lay out as blank
	row = LayoutRow(cols, []string{"x"}, bodyFont, lineHeight, cellPadding)
	assert.Equal(t, []string{""}, row.Lines[1])
}

func TestCenterOffset(t *testing.T) {
	assert.Equal(t, 0.0, CenterOffset(3, 3, 4))
	assert.Equal(t, 0.0, CenterOffset(4, 3, 4))
	assert.Equal(t, 4.0, CenterOffset(1, 3, 4))
	assert.Equal(t, 2.0, CenterOffset(2, 3, 4))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "LDJ01234_ShiftReport_2026-03-02.pdf", Filename("LDJ01234", TypeShiftReport, "2026-03-02", "pdf"))
	assert.Equal(t, "LDJ-01_FibreID_2026-03-02.pdf", Filename(" LDJ/01 ", TypeFibreID, "2026-03-02", "pdf"))
	assert.Equal(t, "project_Samples_x.csv", Filename("//", "Samples", "x", "csv"))
}
