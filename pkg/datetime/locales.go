package datetime

import (
	"fmt"
	"slices"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// segment is one component of a textual date followed by its literal suffix.
// The suffix is dropped together with the component when it is not displayed.
type segment struct {
	field  byte // 'y', 'M' or 'd'
	suffix string
}

type localeData struct {
	tag language.Tag

	// names is set for locales backed by monday translations. The months and
	// weekdays tables are unused for them.
	names     monday.Locale
	textMonth bool

	months   [3][12]string // long, short, narrow
	weekdays [3][7]string  // long, short, narrow; Sunday first
	eras     [3][2]string  // long, short, narrow; BC, AD
	periods  [2]string     // AM, PM
	hour12   bool

	numericOrder string // order of y, M, d in numeric dates
	numericSep   string
	textDate     []segment

	// patterns with {date}, {time}, {weekday}, {era}, {period}, {zone}
	weekdayDate string
	eraDate     string
	dateTime    string
	time12      string
	zoneTime    string
}

var enMonths = [3][12]string{
	{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	{"J", "F", "M", "A", "M", "J", "J", "A", "S", "O", "N", "D"},
}

var enWeekdays = [3][7]string{
	{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	{"S", "M", "T", "W", "T", "F", "S"},
}

var enEras = [3][2]string{
	{"Before Christ", "Anno Domini"},
	{"BC", "AD"},
	{"B", "A"},
}

var jaMonths = func() [3][12]string {
	var m [3][12]string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("%d月", i+1)
		m[0][i], m[1][i], m[2][i] = name, name, name
	}
	return m
}()

var locales = []*localeData{
	{
		tag:          language.AmericanEnglish,
		months:       enMonths,
		weekdays:     enWeekdays,
		eras:         enEras,
		periods:      [2]string{"AM", "PM"},
		hour12:       true,
		numericOrder: "Mdy",
		numericSep:   "/",
		textDate:     []segment{{'M', " "}, {'d', ", "}, {'y', ""}},
		weekdayDate:  "{weekday}, {date}",
		eraDate:      "{date} {era}",
		dateTime:     "{date}, {time}",
		time12:       "{time} {period}",
		zoneTime:     "{time} {zone}",
	},
	{
		tag:          language.BritishEnglish,
		months:       enMonths,
		weekdays:     enWeekdays,
		eras:         enEras,
		periods:      [2]string{"am", "pm"},
		hour12:       false,
		numericOrder: "dMy",
		numericSep:   "/",
		textDate:     []segment{{'d', " "}, {'M', " "}, {'y', ""}},
		weekdayDate:  "{weekday} {date}",
		eraDate:      "{date} {era}",
		dateTime:     "{date}, {time}",
		time12:       "{time} {period}",
		zoneTime:     "{time} {zone}",
	},
	{
		tag: language.German,
		months: [3][12]string{
			{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
			{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
			{"J", "F", "M", "A", "M", "J", "J", "A", "S", "O", "N", "D"},
		},
		weekdays: [3][7]string{
			{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
			{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
			{"S", "M", "D", "M", "D", "F", "S"},
		},
		eras: [3][2]string{
			{"v. Chr.", "n. Chr."},
			{"v. Chr.", "n. Chr."},
			{"v. Chr.", "n. Chr."},
		},
		periods:      [2]string{"AM", "PM"},
		hour12:       false,
		numericOrder: "dMy",
		numericSep:   ".",
		textDate:     []segment{{'d', ". "}, {'M', " "}, {'y', ""}},
		weekdayDate:  "{weekday}, {date}",
		eraDate:      "{date} {era}",
		dateTime:     "{date}, {time}",
		time12:       "{time} {period}",
		zoneTime:     "{time} {zone}",
	},
	{
		tag:    language.Japanese,
		months: jaMonths,
		weekdays: [3][7]string{
			{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"},
			{"日", "月", "火", "水", "木", "金", "土"},
			{"日", "月", "火", "水", "木", "金", "土"},
		},
		eras: [3][2]string{
			{"紀元前", "西暦"},
			{"紀元前", "西暦"},
			{"BC", "AD"},
		},
		periods:      [2]string{"午前", "午後"},
		hour12:       false,
		numericOrder: "yMd",
		numericSep:   "/",
		textDate:     []segment{{'y', "年"}, {'M', ""}, {'d', "日"}},
		weekdayDate:  "{date}({weekday})",
		eraDate:      "{era}{date}",
		dateTime:     "{date} {time}",
		time12:       "{period}{time}",
		zoneTime:     "{time} {zone}",
	},
}

// supported holds the hand-tuned locales first so they win matches for their
// languages, then every other locale monday has translations for
var supported = append(slices.Clip(locales), mondayLocales()...)

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// lookupLocale returns the closest supported locale for tag. A language with
// no translations is an error.
func lookupLocale(tag string) (*localeData, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", tag, err)
	}
	_, idx, conf := localeMatcher.Match(t)
	if conf == language.No {
		return nil, fmt.Errorf("unsupported locale %q", tag)
	}
	return supported[idx], nil
}

// zeroDigits maps a numbering system to the rune for its digit zero. All
// supported systems have contiguous digits.
var zeroDigits = map[string]rune{
	"latn":     '0',
	"arab":     '٠',
	"arabext":  '۰',
	"deva":     '०',
	"beng":     '০',
	"thai":     '๐',
	"fullwide": '０',
}

var calendars = []string{"gregory", "iso8601"}
