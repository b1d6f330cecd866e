package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"ecorisk/internal/prediction"
	"ecorisk/internal/types"
)

//go:embed templates/page.html templates/report.txt
var templateFS embed.FS

// PageTitle is the heading of the prediction page.
const PageTitle = "Climate Risk & Flood Prediction"

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips every tag from s and escapes what is left, so text from
// the prediction service can be placed in the page as-is.
func sanitizeText(s string) template.HTML {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return template.HTML(strings.TrimSpace(textPolicy.Sanitize(s)))
}

// pageData is passed to the page template.
type pageData struct {
	Title  string
	Board  *Board
	Fields []prediction.Field
}

// HTMLRenderer renders a Board as the complete prediction page.
type HTMLRenderer struct {
	page *template.Template
}

// NewHTMLRenderer parses the embedded page template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	raw, err := templateFS.ReadFile("templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("render: failed to read page.html: %w", err)
	}

	page, err := template.New("page.html").Funcs(template.FuncMap{
		"sanitize":      sanitizeText,
		"number":        func(v *float64) string { return prediction.FormatNumber(*v) },
		"gaugeStyle":    gaugeStyle,
		"barStyle":      barStyle,
		"readoutFormat": readoutFormat,
		"readoutSuffix": readoutSuffix,
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("render: failed to parse page.html: %w", err)
	}

	return &HTMLRenderer{page: page}, nil
}

// Render writes the page for b to w. Nothing is written if the template
// fails.
func (r *HTMLRenderer) Render(w io.Writer, b *Board) error {
	var buf bytes.Buffer
	data := pageData{Title: PageTitle, Board: b, Fields: prediction.Fields}
	if err := r.page.ExecuteTemplate(&buf, "page", data); err != nil {
		return types.NewAppError(types.ErrCodeInternalRender, "failed to render prediction page", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func gaugeStyle(v *ResultView) template.CSS {
	return template.CSS(fmt.Sprintf("width: %s; background: %s", v.GaugeWidth, v.Tier.Gradient()))
}

func barStyle(b BarView) template.CSS {
	return template.CSS("width: " + b.Width)
}

func readoutFormat(field string) string {
	if field == prediction.FieldBiodiversityIndex {
		return "fixed2"
	}
	return ""
}

func readoutSuffix(field string) string {
	if field == prediction.FieldSlopeDegree {
		return "°"
	}
	return ""
}
