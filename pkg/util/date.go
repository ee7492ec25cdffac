package util

import (
	"strings"
	"time"
)

// dateTokens maps template placeholders to Go layout fragments. Longer tokens
// come first so "YYYY" wins over "YY".
var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatDateTpl formats a given timestamp in milliseconds since the Unix epoch
// using a template with placeholders.
//
// Supported placeholders:
// - YYYY: 4-digit year
// - YY: 2-digit year
// - MM: 2-digit month (01-12)
// - DD: 2-digit day (01-31)
// - hh: 2-digit hour (00-23)
// - mm: 2-digit minute (00-59)
// - ss: 2-digit second (00-59)
//
// An empty string is returned if ts == 0. Times are rendered in UTC.
//
// Example:
//
//	ts := int64(1699603200000)
//	FormatDateTpl(ts, "YYYY.MM.DD")       // "2023.11.10"
//	FormatDateTpl(ts, "DD/MM/YYYY")       // "10/11/2023"
//	FormatDateTpl(ts, "YYYY-MM-DD hh:mm") // "2023-11-10 08:00"
func FormatDateTpl(ts int64, tpl string) string {
	if ts == 0 {
		return ""
	}
	return time.UnixMilli(ts).UTC().Format(dateTokens.Replace(tpl))
}

// FormatTime is FormatDateTpl for a time.Time; the zero time yields "".
func FormatTime(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return FormatDateTpl(t.UnixMilli(), tpl)
}

// FormatDuration renders d rounded to milliseconds, or to seconds once it
// passes a minute.
func FormatDuration(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
