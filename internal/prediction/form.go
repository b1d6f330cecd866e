package prediction

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// FromForm normalizes a raw form submission into a Request. Values are
// trimmed and blanks are left absent. Protected_Area_Status is true only for
// the literal "true". Numbers that do not parse, or parse to NaN, are left
// absent so the validator reports them as missing. A number too large to
// represent is kept as an infinity on range-checked fields, where it fails
// the bounds check, and is left absent elsewhere since it cannot be encoded.
func FromForm(values url.Values) Request {
	var req Request

	for name, dst := range req.numbers() {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if math.IsInf(v, 0) {
			if !rangeChecked(name) {
				continue
			}
		} else if err != nil || math.IsNaN(v) {
			continue
		}
		*dst = &v
	}

	for name, dst := range req.categories() {
		if raw := strings.TrimSpace(values.Get(name)); raw != "" {
			*dst = &raw
		}
	}

	if raw, ok := values[FieldProtectedAreaStatus]; ok && len(raw) > 0 {
		if v := strings.TrimSpace(raw[0]); v != "" {
			protected := v == "true"
			req.ProtectedAreaStatus = &protected
		}
	}

	return req
}

// ToForm is the inverse of FromForm. Absent fields are omitted.
func ToForm(req Request) url.Values {
	values := url.Values{}
	for name, src := range req.numbers() {
		if *src != nil {
			values.Set(name, FormatNumber(**src))
		}
	}
	for name, src := range req.categories() {
		if *src != nil {
			values.Set(name, **src)
		}
	}
	if req.ProtectedAreaStatus != nil {
		values.Set(FieldProtectedAreaStatus, strconv.FormatBool(*req.ProtectedAreaStatus))
	}
	return values
}

// FormatNumber renders a float the way a user would type it: no exponent and
// no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RangeDisplay returns the live readout shown next to a slider input. Fields
// that are not sliders, and values that do not parse, return raw unchanged.
func RangeDisplay(field, raw string) string {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldBiodiversityIndex:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case FieldSlopeDegree:
		if raw == "" {
			return raw
		}
		return raw + "°"
	default:
		return raw
	}
}
