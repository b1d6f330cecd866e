package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"

	"ecorisk/internal/types"
)

const (
	gaugeCells = 30
	barCells   = 20
)

// TextRenderer renders a Board as a plain-text report for terminals.
type TextRenderer struct {
	report *template.Template
}

// NewTextRenderer parses the embedded report template.
func NewTextRenderer() (*TextRenderer, error) {
	raw, err := templateFS.ReadFile("templates/report.txt")
	if err != nil {
		return nil, fmt.Errorf("render: failed to read report.txt: %w", err)
	}

	report, err := template.New("report").Funcs(template.FuncMap{
		"gauge": func(ratio float64) string { return meter(ratio, gaugeCells) },
		"bar":   func(ratio float64) string { return meter(ratio, barCells) },
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("render: failed to parse report.txt: %w", err)
	}

	return &TextRenderer{report: report}, nil
}

// Render writes the visible panels of b to w.
func (r *TextRenderer) Render(w io.Writer, b *Board) error {
	var buf bytes.Buffer
	if err := r.report.Execute(&buf, b); err != nil {
		return types.NewAppError(types.ErrCodeInternalRender, "failed to render report", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// meter draws ratio as cells characters of '#' and '-'.
func meter(ratio float64, cells int) string {
	filled := int(math.Round(clamp01(ratio) * float64(cells)))
	return strings.Repeat("#", filled) + strings.Repeat("-", cells-filled)
}
