package datetime

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Formatter renders timestamps according to a fixed set of Options. It is
// safe for concurrent use.
type Formatter struct {
	opts   Options
	loc    *time.Location
	locale *localeData
	zero   rune
	cycle  string // h11, h12, h23 or h24
}

// NewFormatter validates opts and prepares a Formatter. An unknown locale tag,
// time zone, calendar or numbering system is an error.
func NewFormatter(opts Options) (*Formatter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !slices.Contains(calendars, opts.Calendar) {
		return nil, fmt.Errorf("unsupported calendar %q", opts.Calendar)
	}
	zero, ok := zeroDigits[opts.NumberingSystem]
	if !ok {
		return nil, fmt.Errorf("unsupported numbering system %q", opts.NumberingSystem)
	}
	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", opts.TimeZone, err)
	}
	locale, err := lookupLocale(opts.Locale)
	if err != nil {
		return nil, err
	}

	if !opts.hasDisplayFields() {
		opts.Year, opts.Month, opts.Day = Numeric, Numeric, Numeric
		opts.Hour, opts.Minute, opts.Second = Numeric, Numeric, Numeric
	}

	return &Formatter{
		opts:   opts,
		loc:    loc,
		locale: locale,
		zero:   zero,
		cycle:  hourCycle(opts, locale),
	}, nil
}

// hourCycle picks the hour cycle: hour12 wins over hourCycle, which wins over
// the locale default
func hourCycle(opts Options, l *localeData) string {
	switch {
	case opts.Hour12 != nil && *opts.Hour12:
		return "h12"
	case opts.Hour12 != nil:
		return "h23"
	case opts.HourCycle != "":
		return opts.HourCycle
	case l.hour12:
		return "h12"
	default:
		return "h23"
	}
}

// Options returns the options the formatter was built with, with defaults applied
func (f *Formatter) Options() Options {
	return f.opts
}

// Format renders t in the configured time zone and locale
func (f *Formatter) Format(t time.Time) string {
	t = t.In(f.loc)

	date := f.date(t)
	clock := f.clock(t)
	if f.opts.TimeZoneName != "" && clock != "" {
		clock = fill(f.locale.zoneTime, "{time}", clock, "{zone}", f.zoneName(t))
	}

	var out string
	switch {
	case date != "" && clock != "":
		out = fill(f.locale.dateTime, "{date}", date, "{time}", clock)
	case date != "":
		out = date
		if f.opts.TimeZoneName != "" {
			out += " " + f.zoneName(t)
		}
	default:
		out = clock
	}

	return f.digits(out)
}

func (f *Formatter) date(t time.Time) string {
	l := f.locale
	o := f.opts

	parts := map[byte]string{}
	if o.Year != "" {
		parts['y'] = numeric(t.Year(), o.Year, true)
	}
	if o.Day != "" {
		parts['d'] = numeric(t.Day(), o.Day, false)
	}

	var date string
	switch o.Month {
	case Long, Short, Narrow:
		if l.names != "" {
			date = f.layoutDate(t)
			break
		}
		parts['M'] = l.months[width(o.Month)][t.Month()-1]
		var b strings.Builder
		for _, seg := range l.textDate {
			if v, ok := parts[seg.field]; ok {
				b.WriteString(v)
				b.WriteString(seg.suffix)
			}
		}
		date = strings.TrimRight(b.String(), " ,")
	default:
		if o.Month != "" {
			parts['M'] = numeric(int(t.Month()), o.Month, false)
		}
		var fields []string
		for i := 0; i < len(l.numericOrder); i++ {
			if v, ok := parts[l.numericOrder[i]]; ok {
				fields = append(fields, v)
			}
		}
		date = strings.Join(fields, l.numericSep)
	}

	if o.Weekday != "" {
		weekday := f.weekdayName(t, o.Weekday)
		if date == "" {
			date = weekday
		} else {
			date = fill(l.weekdayDate, "{weekday}", weekday, "{date}", date)
		}
	}

	if o.Era != "" && date != "" {
		era := l.eras[width(o.Era)][1]
		if t.Year() <= 0 {
			era = l.eras[width(o.Era)][0]
		}
		date = fill(l.eraDate, "{era}", era, "{date}", date)
	}

	return date
}

func (f *Formatter) clock(t time.Time) string {
	o := f.opts
	var fields []string

	if o.Hour != "" {
		fields = append(fields, numeric(f.hour(t.Hour()), o.Hour, false))
	}
	if o.Minute != "" {
		if len(fields) > 0 {
			fields = append(fields, fmt.Sprintf("%02d", t.Minute()))
		} else {
			fields = append(fields, numeric(t.Minute(), o.Minute, false))
		}
	}
	if o.Second != "" {
		if len(fields) > 0 {
			fields = append(fields, fmt.Sprintf("%02d", t.Second()))
		} else {
			fields = append(fields, numeric(t.Second(), o.Second, false))
		}
	}

	clock := strings.Join(fields, ":")
	if o.Hour != "" && (f.cycle == "h11" || f.cycle == "h12") {
		period := f.locale.periods[0]
		if t.Hour() >= 12 {
			period = f.locale.periods[1]
		}
		clock = fill(f.locale.time12, "{time}", clock, "{period}", period)
	}
	return clock
}

func (f *Formatter) hour(h int) int {
	switch f.cycle {
	case "h11":
		return h % 12
	case "h12":
		if h%12 == 0 {
			return 12
		}
		return h % 12
	case "h24":
		if h == 0 {
			return 24
		}
	}
	return h
}

// zoneName returns the zone abbreviation for short names and the IANA name
// for long ones. Zones without an alphabetic abbreviation render as GMT offsets.
func (f *Formatter) zoneName(t time.Time) string {
	if f.opts.TimeZoneName == Long {
		return f.loc.String()
	}
	abbr, offset := t.Zone()
	if abbr != "" && abbr[0] != '+' && abbr[0] != '-' {
		return abbr
	}
	if offset == 0 {
		return "GMT"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours, minutes := offset/3600, (offset%3600)/60
	if minutes == 0 {
		return fmt.Sprintf("GMT%s%d", sign, hours)
	}
	return fmt.Sprintf("GMT%s%d:%02d", sign, hours, minutes)
}

// digits replaces ASCII digits with those of the numbering system
func (f *Formatter) digits(s string) string {
	if f.zero == '0' {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return f.zero + (r - '0')
		}
		return r
	}, s)
}

func numeric(n int, style string, year bool) string {
	if style != TwoDigit {
		return strconv.Itoa(n)
	}
	if year {
		n %= 100
		if n < 0 {
			n = -n
		}
	}
	return fmt.Sprintf("%02d", n)
}

func width(style string) int {
	switch style {
	case Short:
		return 1
	case Narrow:
		return 2
	default:
		return 0
	}
}

func fill(pattern string, oldnew ...string) string {
	return strings.NewReplacer(oldnew...).Replace(pattern)
}
