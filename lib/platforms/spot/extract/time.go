package extract

import (
	"regexp"
	"strings"
	"time"

	"spotifier-core/lib/timezone"
)

var monthNames = map[string]string{
	"januari":   "Jan",
	"jan":       "Jan",
	"februari":  "Feb",
	"pebruari":  "Feb",
	"feb":       "Feb",
	"maret":     "Mar",
	"mar":       "Mar",
	"april":     "Apr",
	"apr":       "Apr",
	"mei":       "May",
	"may":       "May",
	"juni":      "Jun",
	"jun":       "Jun",
	"juli":      "Jul",
	"jul":       "Jul",
	"agustus":   "Aug",
	"agu":       "Aug",
	"agt":       "Aug",
	"aug":       "Aug",
	"september": "Sep",
	"sep":       "Sep",
	"sept":      "Sep",
	"oktober":   "Oct",
	"okt":       "Oct",
	"oct":       "Oct",
	"november":  "Nov",
	"nov":       "Nov",
	"nopember":  "Nov",
	"desember":  "Dec",
	"des":       "Dec",
	"dec":       "Dec",
}

var dayNames = map[string]bool{
	"senin": true, "selasa": true, "rabu": true, "kamis": true,
	"jumat": true, "jum'at": true, "sabtu": true, "minggu": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var dottedClock = regexp.MustCompile(`\b(\d{1,2})\.(\d{2})\b`)

var timeLayouts = []string{
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// normalizeTime rewrites an Indonesian timestamp like
// "Senin, 01 Desember 2025 23.59 WIB" into "01 Dec 2025 23:59".
func normalizeTime(value string) string {
	value = strings.ReplaceAll(value, ",", " ")
	value = dottedClock.ReplaceAllString(value, "$1:$2")

	var out []string
	for i, field := range strings.Fields(value) {
		lower := strings.ToLower(field)
		if i == 0 && dayNames[lower] {
			continue
		}
		if lower == "wib" || lower == "pukul" || lower == "jam" {
			continue
		}
		if month, ok := monthNames[lower]; ok {
			field = month
		}
		out = append(out, field)
	}
	return strings.Join(out, " ")
}

// ParseTime parses a portal timestamp in WIB, returning nil when value is
// empty or in no known format.
func ParseTime(value string) *time.Time {
	value = normalizeTime(value)
	if value == "" {
		return nil
	}
	parsed, err := timezone.ParseAny(value, timeLayouts...)
	if err != nil {
		return nil
	}
	return &parsed
}
