package datetime

import (
	"slices"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// layoutTokens are the Go reference layout elements found in date layouts,
// longest first so "January" is not read as "Jan".
var layoutTokens = []struct {
	token string
	field byte // 'y', 'M', 'd' or 'w' for weekday
	text  bool // month or weekday name rather than a number
}{
	{"January", 'M', true},
	{"Monday", 'w', true},
	{"2006", 'y', false},
	{"Jan", 'M', true},
	{"Mon", 'w', true},
	{"01", 'M', false},
	{"02", 'd', false},
	{"06", 'y', false},
	{"_2", 'd', false},
	{"1", 'M', false},
	{"2", 'd', false},
}

// parseLayout splits a Go date layout into year, month and day segments.
// Weekdays and any text before the first field are dropped. textMonth reports
// whether the month is spelled out.
func parseLayout(layout string) (segs []segment, textMonth bool) {
	skip := false
	for len(layout) > 0 {
		matched := false
		for _, t := range layoutTokens {
			if !strings.HasPrefix(layout, t.token) {
				continue
			}
			layout = layout[len(t.token):]
			matched = true
			skip = t.field == 'w'
			if !skip {
				segs = append(segs, segment{field: t.field})
				if t.field == 'M' {
					textMonth = t.text
				}
			}
			break
		}
		if matched {
			continue
		}
		if !skip && len(segs) > 0 {
			segs[len(segs)-1].suffix += layout[:1]
		}
		layout = layout[1:]
	}
	return segs, textMonth
}

// mondayLocale builds locale data from the layouts and translations of a
// monday locale. Month and weekday names are rendered through monday.Format
// so languages with genitive month forms stay correct.
func mondayLocale(name monday.Locale) (*localeData, bool) {
	tag, err := language.Parse(strings.ReplaceAll(string(name), "_", "-"))
	if err != nil {
		return nil, false
	}
	short, ok := monday.ShortFormatsByLocale[name]
	if !ok {
		return nil, false
	}
	long, ok := monday.LongFormatsByLocale[name]
	if !ok {
		return nil, false
	}

	numeric, _ := parseLayout(short)
	order := make([]byte, 0, 3)
	for _, seg := range numeric {
		order = append(order, seg.field)
	}
	sep := "/"
	if len(numeric) > 1 && numeric[0].suffix != "" {
		sep = numeric[0].suffix
	}
	if len(order) != 3 {
		order = []byte("dMy")
	}

	text, textMonth := parseLayout(long)
	if len(text) == 0 {
		return nil, false
	}

	noon := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	return &localeData{
		tag:          tag,
		names:        name,
		textMonth:    textMonth,
		eras:         enEras,
		periods:      [2]string{monday.Format(noon.Add(-12*time.Hour), "AM", name), monday.Format(noon, "PM", name)},
		numericOrder: string(order),
		numericSep:   sep,
		textDate:     text,
		weekdayDate:  "{weekday} {date}",
		eraDate:      "{date} {era}",
		dateTime:     "{date} {time}",
		time12:       "{time} {period}",
		zoneTime:     "{time} {zone}",
	}, true
}

// mondayLocales returns the monday locales whose language has no hand-tuned
// table, sorted by name
func mondayLocales() []*localeData {
	names := monday.ListLocales()
	slices.Sort(names)

	var out []*localeData
	for _, name := range names {
		l, ok := mondayLocale(name)
		if !ok {
			continue
		}
		base, _ := l.tag.Base()
		if slices.ContainsFunc(locales, func(c *localeData) bool {
			b, _ := c.tag.Base()
			return b == base
		}) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// layoutDate renders the textual date through monday
func (f *Formatter) layoutDate(t time.Time) string {
	l, o := f.locale, f.opts

	var b strings.Builder
	for _, seg := range l.textDate {
		var token string
		switch seg.field {
		case 'y':
			if o.Year == "" {
				continue
			}
			token = "2006"
			if o.Year == TwoDigit {
				token = "06"
			}
		case 'M':
			switch {
			case !l.textMonth:
				token = "1"
			case o.Month == Long:
				token = "January"
			default:
				token = "Jan"
			}
		case 'd':
			if o.Day == "" {
				continue
			}
			token = "2"
			if o.Day == TwoDigit {
				token = "02"
			}
		}
		b.WriteString(token)
		b.WriteString(seg.suffix)
	}
	return strings.TrimRight(monday.Format(t, b.String(), l.names), " ,")
}

// weekdayName returns the weekday of t in the requested width
func (f *Formatter) weekdayName(t time.Time, style string) string {
	l := f.locale
	if l.names == "" {
		return l.weekdays[width(style)][t.Weekday()]
	}
	switch style {
	case Long:
		return monday.Format(t, "Monday", l.names)
	case Short:
		return monday.Format(t, "Mon", l.names)
	default:
		for _, r := range monday.Format(t, "Monday", l.names) {
			return string(r)
		}
		return ""
	}
}
