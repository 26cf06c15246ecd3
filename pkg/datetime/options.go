// Package datetime renders timestamps from a pre-resolved, locale-independent
// format descriptor.
//
// The descriptor is resolved once when the notifier is provisioned and shipped
// to the handler as JSON, so rendering never depends on the host's locale or
// local time zone.
package datetime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mosajjal/lognotifier/pkg/schema"
)

// Options is a resolved date-time format descriptor. Field names and values
// follow the resolved options of an Intl.DateTimeFormat.
type Options struct {
	Locale          string `json:"locale"`
	Calendar        string `json:"calendar"`
	NumberingSystem string `json:"numberingSystem"`
	TimeZone        string `json:"timeZone"`

	HourCycle    string `json:"hourCycle,omitempty"`
	Hour12       *bool  `json:"hour12,omitempty"`
	Weekday      string `json:"weekday,omitempty"`
	Era          string `json:"era,omitempty"`
	Year         string `json:"year,omitempty"`
	Month        string `json:"month,omitempty"`
	Day          string `json:"day,omitempty"`
	Hour         string `json:"hour,omitempty"`
	Minute       string `json:"minute,omitempty"`
	Second       string `json:"second,omitempty"`
	TimeZoneName string `json:"timeZoneName,omitempty"`
}

// Display field values
const (
	Numeric  = "numeric"
	TwoDigit = "2-digit"
	Long     = "long"
	Short    = "short"
	Narrow   = "narrow"
)

var optionsShape = []schema.Field{
	{Name: "locale", Kind: schema.String, NonEmpty: true},
	{Name: "calendar", Kind: schema.String, NonEmpty: true},
	{Name: "numberingSystem", Kind: schema.String, NonEmpty: true},
	{Name: "timeZone", Kind: schema.String, NonEmpty: true},
	{Name: "hourCycle", Kind: schema.String, Optional: true},
	{Name: "hour12", Kind: schema.Bool, Optional: true},
	{Name: "weekday", Kind: schema.String, Optional: true},
	{Name: "era", Kind: schema.String, Optional: true},
	{Name: "year", Kind: schema.String, Optional: true},
	{Name: "month", Kind: schema.String, Optional: true},
	{Name: "day", Kind: schema.String, Optional: true},
	{Name: "hour", Kind: schema.String, Optional: true},
	{Name: "minute", Kind: schema.String, Optional: true},
	{Name: "second", Kind: schema.String, Optional: true},
	{Name: "timeZoneName", Kind: schema.String, Optional: true},
}

var (
	textWidths    = []string{Long, Short, Narrow}
	numericWidths = []string{Numeric, TwoDigit}
	monthWidths   = []string{Numeric, TwoDigit, Long, Short, Narrow}
	zoneWidths    = []string{Long, Short}
	hourCycles    = []string{"h11", "h12", "h23", "h24"}
)

// ParseOptions decodes and validates a JSON encoded descriptor
func ParseOptions(raw string) (Options, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return Options{}, fmt.Errorf("invalid date-time format options: %w", err)
	}
	if r := schema.Validate(doc, optionsShape...); !r.OK() {
		return Options{}, fmt.Errorf("invalid date-time format options: %w", r.Err())
	}

	var opts Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return Options{}, fmt.Errorf("invalid date-time format options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks that every display field holds a known value
func (o Options) Validate() error {
	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"hourCycle", o.HourCycle, hourCycles},
		{"weekday", o.Weekday, textWidths},
		{"era", o.Era, textWidths},
		{"year", o.Year, numericWidths},
		{"month", o.Month, monthWidths},
		{"day", o.Day, numericWidths},
		{"hour", o.Hour, numericWidths},
		{"minute", o.Minute, numericWidths},
		{"second", o.Second, numericWidths},
		{"timeZoneName", o.TimeZoneName, zoneWidths},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("invalid date-time format options: %s must be one of %s, got %q",
				c.name, strings.Join(c.allowed, ", "), c.value)
		}
	}
	return nil
}

// String returns the JSON encoding of the descriptor
func (o Options) String() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// hasDisplayFields reports whether any date or time component was selected
func (o Options) hasDisplayFields() bool {
	return o.Weekday != "" || o.Year != "" || o.Month != "" || o.Day != "" ||
		o.Hour != "" || o.Minute != "" || o.Second != ""
}
