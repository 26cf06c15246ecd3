package datetime

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ResolveInput selects the locale and time zone to resolve options for. Empty
// values fall back to en-US and UTC.
type ResolveInput struct {
	Locale   string
	TimeZone string
	Hour12   *bool
}

// Resolve produces a complete descriptor showing the numeric date and time.
// The returned options are checked by building a Formatter from them.
func Resolve(in ResolveInput) (Options, error) {
	tag := in.Locale
	if tag == "" {
		tag = language.AmericanEnglish.String()
	}
	locale, err := lookupLocale(tag)
	if err != nil {
		return Options{}, err
	}
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	opts := Options{
		Locale:          resolvedTag(tag, locale),
		Calendar:        "gregory",
		NumberingSystem: "latn",
		TimeZone:        tz,
		Year:            Numeric,
		Month:           Numeric,
		Day:             Numeric,
		Hour:            Numeric,
		Minute:          Numeric,
		Second:          Numeric,
	}
	hour12 := locale.hour12
	if in.Hour12 != nil {
		hour12 = *in.Hour12
	}
	opts.Hour12 = &hour12
	opts.HourCycle = "h23"
	if hour12 {
		opts.HourCycle = "h12"
	}

	if _, err := NewFormatter(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// resolvedTag keeps the requested region when the language is supported, so
// "en-AU" stays "en-AU" and is matched to the closest translation when
// formatting.
func resolvedTag(requested string, l *localeData) string {
	t, err := language.Parse(requested)
	if err != nil {
		return l.tag.String()
	}
	base, _ := t.Base()
	supported, _ := l.tag.Base()
	if base != supported {
		return l.tag.String()
	}
	if _, conf := t.Region(); conf == language.Exact {
		return t.String()
	}
	return l.tag.String()
}

// LocaleFromPOSIX converts a POSIX locale such as "ja_JP.UTF-8" into a BCP 47
// tag. "C", "POSIX" and empty values return an empty string.
func LocaleFromPOSIX(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

// TimeZoneFromPOSIX converts a TZ environment value into an IANA time zone
// name. A leading ':' is dropped and zoneinfo file paths are reduced to the
// zone name. Other file paths and POSIX rule strings such as
// "EST5EDT,M3.2.0,M11.1.0" are rejected. An empty value returns "".
func TimeZoneFromPOSIX(s string) (string, error) {
	s = strings.TrimPrefix(s, ":")
	if s == "" {
		return "", nil
	}
	if i := strings.Index(s, "zoneinfo/"); i >= 0 {
		s = s[i+len("zoneinfo/"):]
	}
	if strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("time zone %q is a file path, use an IANA name such as Europe/Berlin", s)
	}
	if _, err := time.LoadLocation(s); err != nil {
		return "", fmt.Errorf("time zone %q is not an IANA name, POSIX TZ rules are not supported", s)
	}
	return s, nil
}
