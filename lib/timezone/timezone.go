package timezone

import (
	"time"

	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
}

// the portal renders every timestamp in WIB without an offset, so all
// parsing and "is it past the deadline yet" checks must happen in WIB
// regardless of where the process runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// ParseAny parses value with the first layout that accepts it, interpreting
// the result in WIB.
func ParseAny(value string, layouts ...string) (time.Time, error) {
	var firstErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, Location)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
