package model

import (
	"fmt"
	"strings"
	"time"

	"spotifier-core/lib/timezone"
)

type TaskStatus int

const (
	Pending TaskStatus = iota
	Submitted
	Graded
	NotSubmitted
)

var taskStatusNames = map[TaskStatus]string{
	Pending:      "pending",
	Submitted:    "submitted",
	Graded:       "graded",
	NotSubmitted: "not_submitted",
}

func (s TaskStatus) String() string {
	name, ok := taskStatusNames[s]
	if !ok {
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
	return name
}

func (s TaskStatus) MarshalText() ([]byte, error) {
	name, ok := taskStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: unknown task status %d", ErrParsing, int(s))
	}
	return []byte(name), nil
}

func (s *TaskStatus) UnmarshalText(text []byte) error {
	value := strings.ToLower(strings.TrimSpace(string(text)))
	for status, name := range taskStatusNames {
		if name == value {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("%w: unknown task status %q", ErrParsing, value)
}

// Status derives the submission state of the task at `now`, the first
// matching rule wins:
//
//  1. an answer that was graded -> Graded
//  2. any answer -> Submitted
//  3. a due date before now -> NotSubmitted
//  4. Pending
func (t Task) Status(now time.Time) TaskStatus {
	if t.Answer != nil {
		if t.Answer.IsGraded {
			return Graded
		}
		return Submitted
	}
	if t.DueDate != nil && t.DueDate.Before(now) {
		return NotSubmitted
	}
	return Pending
}

func (t Task) CurrentStatus() TaskStatus {
	return t.Status(timezone.Now())
}
