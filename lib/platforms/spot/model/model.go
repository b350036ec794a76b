package model

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrParsing         = errors.New("parsing error")
)

type User struct {
	Name string `json:"name"`
	Nim  string `json:"nim"`
}

type Course struct {
	Id           uint64 `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Credits      uint8  `json:"credits"`
	Lecturer     string `json:"lecturer"`
	AcademicYear string `json:"academic_year"`
	Href         string `json:"href"`
}

// Rps is the semester lesson plan attached to a course, both fields are
// nil when the course has none.
type Rps struct {
	Id   *uint64 `json:"id"`
	Href *string `json:"href"`
}

type TopicInfo struct {
	Id           *uint64    `json:"id"`
	CourseId     *uint64    `json:"course_id"`
	AccessTime   *time.Time `json:"access_time"`
	IsAccessible bool       `json:"is_accessible"`
	Href         *string    `json:"href"`
}

type DetailCourse struct {
	Course
	Description string      `json:"description"`
	Rps         Rps         `json:"rps"`
	Topics      []TopicInfo `json:"topics"`
}

type Content struct {
	Id        uint32  `json:"id"`
	YoutubeId *string `json:"youtube_id"`
	RawHtml   string  `json:"raw_html"`
}

type Answer struct {
	Id            *uint64    `json:"id"`
	Content       string     `json:"content"`
	FileHref      *string    `json:"file_href"`
	IsGraded      bool       `json:"is_graded"`
	LecturerNotes string     `json:"lecturer_notes"`
	Score         float32    `json:"score"`
	SubmittedAt   *time.Time `json:"submitted_at"`
}

type Task struct {
	Id          *uint64    `json:"id"`
	CourseId    uint64     `json:"course_id"`
	TopicId     uint64     `json:"topic_id"`
	Token       string     `json:"token"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	File        *string    `json:"file"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	Answer      *Answer    `json:"answer"`
}

// plainTask has the fields of Task without its methods, so that
// MarshalJSON does not recurse.
type plainTask Task

// MarshalJSON includes the status derived at marshal time, it is ignored
// when unmarshalling.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainTask
		Status TaskStatus `json:"status"`
	}{
		plainTask: plainTask(t),
		Status:    t.CurrentStatus(),
	})
}

type TopicDetail struct {
	Id           uint64     `json:"id"`
	AccessTime   *time.Time `json:"access_time"`
	IsAccessible bool       `json:"is_accessible"`
	Href         string     `json:"href"`
	Description  *string    `json:"description"`
	Contents     []Content  `json:"contents"`
	Tasks        []Task     `json:"tasks"`
}
