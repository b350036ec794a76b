package model

import (
	"fmt"
	"strconv"
	"strings"
)

type Semester uint8

const (
	Odd   Semester = 1
	Even  Semester = 2
	Short Semester = 3
)

// String returns the token the portal uses for the semester.
func (s Semester) String() string {
	switch s {
	case Odd:
		return "Ganjil"
	case Even:
		return "Genap"
	case Short:
		return "SP"
	}
	return fmt.Sprintf("Semester(%d)", uint8(s))
}

func (s Semester) Valid() bool {
	return s >= Odd && s <= Short
}

// ParseSemester maps a portal semester token to a Semester, ignoring case.
func ParseSemester(token string) (Semester, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "ganjil":
		return Odd, nil
	case "genap":
		return Even, nil
	case "sp", "semester pendek":
		return Short, nil
	}
	return 0, fmt.Errorf("%w: unknown semester type %q", ErrParsing, token)
}

// Period is an academic period, 2025 Odd is the first semester of the
// 2025/2026 academic year.
type Period struct {
	Year     uint16   `json:"year"`
	Semester Semester `json:"semester"`
}

// Format renders the numeric form used in portal paths, e.g. "20251".
func (p Period) Format() string {
	return fmt.Sprintf("%d%d", p.Year, uint8(p.Semester))
}

func (p Period) String() string {
	return p.Format()
}

// Label renders the human label, e.g. "2025/2026 - Ganjil".
func (p Period) Label() string {
	return fmt.Sprintf("%d/%d - %s", p.Year, uint32(p.Year)+1, p.Semester)
}

// ParsePeriodCode parses the output of Period.Format.
func ParsePeriodCode(code string) (Period, error) {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return Period{}, fmt.Errorf("%w: invalid period code %q", ErrParsing, code)
	}
	year, err := strconv.ParseUint(code[:len(code)-1], 10, 16)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid period year %q: %w", ErrParsing, code, err)
	}
	semester, err := strconv.ParseUint(code[len(code)-1:], 10, 8)
	if err != nil || !Semester(semester).Valid() {
		return Period{}, fmt.Errorf("%w: invalid period semester %q", ErrParsing, code)
	}
	return Period{Year: uint16(year), Semester: Semester(semester)}, nil
}

// ParseAcademicYear parses a human label like "2025/2026 - Genap".
func ParseAcademicYear(label string) (Period, error) {
	parts := strings.Split(label, "-")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: invalid academic year format %q", ErrParsing, label)
	}

	yearPart := strings.TrimSpace(parts[0])
	yearStr, _, _ := strings.Cut(yearPart, "/")
	year, err := strconv.ParseUint(strings.TrimSpace(yearStr), 10, 16)
	if err != nil {
		return Period{}, fmt.Errorf("%w: cannot parse year from %q", ErrParsing, yearPart)
	}

	semester, err := ParseSemester(parts[1])
	if err != nil {
		return Period{}, err
	}
	return Period{Year: uint16(year), Semester: semester}, nil
}
