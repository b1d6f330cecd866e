package prediction

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ecorisk/internal/types"
)

// validationPreamble introduces the joined list of validation messages.
const validationPreamble = "Please fix the following errors:"

// rangeRule couples a bounded field with its bounds. The slice order is the
// order in which range messages are reported.
type rangeRule struct {
	field    string
	min, max float64
}

var rangeRules = []rangeRule{
	{FieldLatitude, MinLatitude, MaxLatitude},
	{FieldLongitude, MinLongitude, MaxLongitude},
	{FieldBiodiversityIndex, MinBiodiversity, MaxBiodiversity},
	{FieldAirQualityIndex, MinAirQuality, MaxAirQuality},
}

func rangeChecked(field string) bool {
	for _, r := range rangeRules {
		if r.field == field {
			return true
		}
	}
	return false
}

func (r rangeRule) message() string {
	return fmt.Sprintf("%s must be between %s and %s", Label(r.field), FormatNumber(r.min), FormatNumber(r.max))
}

// Validator checks a Request for presence of every field and for the numeric
// bounds of coordinates, biodiversity and air quality. It wraps
// go-playground/validator and translates its field errors into the messages
// shown to users.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator that reports fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns the ordered list of problems with req: one "is required"
// message per absent field in catalog order, followed by the range messages.
// An empty result means req may be transmitted.
func (v *Validator) Validate(req Request) []string {
	req = blankCategoriesAbsent(req)

	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	var messages []string
	outOfRange := make(map[string]bool)
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			messages = append(messages, Label(fe.Field())+" is required")
			continue
		}
		outOfRange[fe.Field()] = true
	}
	for _, rule := range rangeRules {
		if outOfRange[rule.field] {
			messages = append(messages, rule.message())
		}
	}
	return messages
}

// Check validates req and returns a *types.AppError with code
// validation_failed when it has problems, nil otherwise.
func (v *Validator) Check(req Request) error {
	if errs := v.Validate(req); len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}

// NewValidationError wraps a non-empty message list. The message is the
// joined, user-facing text and the list is kept under details["errors"].
func NewValidationError(errs []string) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationFailed,
		Joined(errs),
		nil,
		map[string]any{"errors": errs},
	)
}

// Joined renders messages as one block of text, one message per line.
func Joined(errs []string) string {
	return validationPreamble + "\n" + strings.Join(errs, "\n")
}

// blankCategoriesAbsent treats empty or whitespace-only categorical values as
// absent. JSON callers may send "" where a form would send nothing.
func blankCategoriesAbsent(req Request) Request {
	for _, dst := range req.categories() {
		if *dst != nil && strings.TrimSpace(**dst) == "" {
			*dst = nil
		}
	}
	return req
}
