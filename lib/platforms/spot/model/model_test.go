package model

import (
	"encoding/json"
	"testing"
	"time"

	"spotifier-core/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPeriodParsing(t *testing.T) {
	cases := []struct {
		label    string
		expected Period
		code     string
	}{
		{"2025/2026 - Genap", Period{2025, Even}, "20252"},
		{"2024/2025 - Ganjil", Period{2024, Odd}, "20241"},
		{"2025/2026 - SP", Period{2025, Short}, "20253"},
		{"2025/2026 - semester pendek", Period{2025, Short}, "20253"},
		{" 2023/2024 -GANJIL ", Period{2023, Odd}, "20231"},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			period, err := ParseAcademicYear(c.label)
			require.NoError(t, err)
			require.Equal(t, c.expected, period)
			require.Equal(t, c.code, period.Format())
			require.Equal(t, c.code, period.String())
		})
	}
}

func TestPeriodParsingFailures(t *testing.T) {
	for _, label := range []string{
		"Invalid",
		"2025/2026 Genap",
		"2025/2026 - Genap - Extra",
		"abcd/2026 - Genap",
		"2025/2026 - Antara",
		"",
	} {
		_, err := ParseAcademicYear(label)
		require.ErrorIs(t, err, ErrParsing, label)
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	for year := uint16(2000); year < 2040; year++ {
		for _, semester := range []Semester{Odd, Even, Short} {
			p := Period{Year: year, Semester: semester}

			fromLabel, err := ParseAcademicYear(p.Label())
			require.NoError(t, err)
			require.Equal(t, p, fromLabel)

			fromCode, err := ParsePeriodCode(p.Format())
			require.NoError(t, err)
			require.Equal(t, p, fromCode)
		}
	}
}

func TestParsePeriodCodeFailures(t *testing.T) {
	for _, code := range []string{"", "2", "20250", "20254", "abcd1", "2025x"} {
		_, err := ParsePeriodCode(code)
		require.ErrorIs(t, err, ErrParsing, code)
	}
}

func TestSemesterString(t *testing.T) {
	require.Equal(t, "Ganjil", Odd.String())
	require.Equal(t, "Genap", Even.String())
	require.Equal(t, "SP", Short.String())
	require.Equal(t, "2025/2026 - Genap", Period{2025, Even}.Label())
}

func ptr[T any](v T) *T {
	return &v
}

func TestTaskStatus(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, timezone.Location)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name     string
		task     Task
		expected TaskStatus
	}{
		{"graded", Task{DueDate: &past, Answer: &Answer{IsGraded: true, Score: 90}}, Graded},
		{"submitted late", Task{DueDate: &past, Answer: &Answer{Id: ptr[uint64](7)}}, Submitted},
		{"submitted", Task{DueDate: &future, Answer: &Answer{}}, Submitted},
		{"missed", Task{DueDate: &past}, NotSubmitted},
		{"open", Task{DueDate: &future}, Pending},
		{"no due date", Task{}, Pending},
		{"due exactly now", Task{DueDate: &now}, Pending},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, c.task.Status(now))
		})
	}
}

func TestTaskStatusText(t *testing.T) {
	for _, status := range []TaskStatus{Pending, Submitted, Graded, NotSubmitted} {
		text, err := status.MarshalText()
		require.NoError(t, err)

		var parsed TaskStatus
		require.NoError(t, parsed.UnmarshalText(text))
		require.Equal(t, status, parsed)
	}

	var parsed TaskStatus
	require.ErrorIs(t, parsed.UnmarshalText([]byte("lost")), ErrParsing)
}

func TestTaskJson(t *testing.T) {
	due := time.Date(2000, 1, 1, 0, 0, 0, 0, timezone.Location)
	task := Task{
		Id:       ptr[uint64](42),
		CourseId: 1,
		TopicId:  2,
		Token:    "csrf",
		Title:    "Tugas 1",
		DueDate:  &due,
	}

	serialized, err := json.Marshal(task)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(serialized, &fields))
	require.Equal(t, "not_submitted", fields["status"])
	require.Equal(t, "Tugas 1", fields["title"])

	var decoded Task
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	diff := cmp.Diff(task, decoded, cmp.Comparer(func(a, b time.Time) bool {
		return a.Equal(b)
	}))
	require.Empty(t, diff)
}

func TestDetailCourseJsonFlattensCourse(t *testing.T) {
	detail := DetailCourse{
		Course:      Course{Id: 9, Code: "IK100", Name: "Basis Data"},
		Description: "desc",
	}
	serialized, err := json.Marshal(detail)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(serialized, &fields))
	require.Equal(t, "IK100", fields["code"])
	require.Equal(t, "desc", fields["description"])
}

func TestDelayConfig(t *testing.T) {
	cfg := DefaultDelayConfig()
	require.Equal(t, DelayConfig{MinDelayMs: 1000, MaxDelayMs: 3000, Enabled: true}, cfg)
	require.NoError(t, cfg.Validate())
	require.Equal(t, time.Second, cfg.Min())
	require.Error(t, DelayConfig{MinDelayMs: 5, MaxDelayMs: 1}.Validate())
}
