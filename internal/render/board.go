package render

import (
	"net/url"

	"ecorisk/internal/prediction"
)

// Board is the state of one prediction page: the form values, which of the
// loading, results and error panels are visible, whether the submit control
// is enabled and what the visible panel shows. A Board belongs to a single
// page and is not safe for concurrent use.
type Board struct {
	Values url.Values

	LoadingVisible bool
	ResultsVisible bool
	ErrorVisible   bool
	SubmitEnabled  bool

	ErrorMessage string
	Result       *ResultView

	// Notice is a non-blocking banner, such as the models-not-loaded warning.
	Notice string
}

// NewBoard returns a Board with an empty form and the submit control enabled.
func NewBoard() *Board {
	return &Board{Values: url.Values{}, SubmitEnabled: true}
}

// HidePanels hides the loading, results and error panels.
func (b *Board) HidePanels() {
	b.LoadingVisible = false
	b.ResultsVisible = false
	b.ErrorVisible = false
}

func (b *Board) ShowLoading() { b.LoadingVisible = true }

func (b *Board) HideLoading() { b.LoadingVisible = false }

func (b *Board) SetSubmitEnabled(enabled bool) { b.SubmitEnabled = enabled }

// ShowError fills and reveals the error panel.
func (b *Board) ShowError(msg string) {
	b.ErrorMessage = msg
	b.ErrorVisible = true
}

// ShowResult draws resp and reveals the results panel.
func (b *Board) ShowResult(resp prediction.Response) {
	b.DrawResult(resp)
	b.ResultsVisible = true
}

// DrawResult replaces the drawn result with resp, so drawing the same
// response twice leaves one bar per category. A ResultView taken from an
// earlier draw is left untouched.
func (b *Board) DrawResult(resp prediction.Response) {
	view := NewResultView(resp)
	b.Result = &view
}

// SetValues replaces the form values shown in the input panel.
func (b *Board) SetValues(values url.Values) {
	if values == nil {
		values = url.Values{}
	}
	b.Values = values
}

// SetNotice sets the banner text. An empty string clears it.
func (b *Board) SetNotice(msg string) { b.Notice = msg }

// Value returns the current form value of field.
func (b *Board) Value(field string) string {
	return b.Values.Get(field)
}

// InputValue is the value an input control starts with: the form value, or
// the slider default when a slider has none.
func (b *Board) InputValue(field string) string {
	if v := b.Values.Get(field); v != "" {
		return v
	}
	if f, ok := prediction.FieldByName(field); ok && f.IsRange() {
		return f.Default
	}
	return ""
}

// Readout returns the live display text for a slider field.
func (b *Board) Readout(field string) string {
	return prediction.RangeDisplay(field, b.InputValue(field))
}
