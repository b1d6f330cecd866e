package prompt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ecorisk/internal/prediction"
)

// Collector asks for every form field in catalog order.
type Collector struct {
	driver Driver
}

// NewCollector returns a Collector using driver.
func NewCollector(driver Driver) *Collector {
	return &Collector{driver: driver}
}

// Collect prompts for each field, offering the values in current as
// defaults, and returns the answers as form values. Numbers may be left
// blank; range checks are left to the validator so that the terminal and the
// page report the same messages.
func (c *Collector) Collect(ctx context.Context, current url.Values) (url.Values, error) {
	out := url.Values{}
	for _, f := range prediction.Fields {
		value, err := c.ask(ctx, f, strings.TrimSpace(current.Get(f.Name)))
		if err != nil {
			return nil, err
		}
		out.Set(f.Name, value)
	}
	return out, nil
}

func (c *Collector) ask(ctx context.Context, f prediction.Field, current string) (string, error) {
	message := f.Label()
	if f.Unit != "" {
		message += " (" + f.Unit + ")"
	}

	switch f.Kind {
	case prediction.KindCategory:
		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      f.Options,
			DefaultIndex: indexOf(f.Options, current),
			PageSize:     len(f.Options),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(f.Options) {
			return "", nil
		}
		return f.Options[idx], nil

	case prediction.KindBoolean:
		yes, err := c.driver.Confirm(ctx, ConfirmConfig{
			Message: "Is the site a protected area?",
			Default: current == "true",
		})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(yes), nil

	default:
		if current == "" {
			current = f.Default
		}
		return c.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      rangeHelp(f),
			Validator: numeric,
		})
	}
}

func numeric(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

func rangeHelp(f prediction.Field) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("Between %s and %s", prediction.FormatNumber(*f.Min), prediction.FormatNumber(*f.Max))
	case f.Min != nil:
		return "At least " + prediction.FormatNumber(*f.Min)
	default:
		return ""
	}
}
