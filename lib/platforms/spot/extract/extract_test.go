package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixture(t testing.TB, name string) *goquery.Document {
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := Parse(contents)
	require.NoError(t, err)
	return doc
}

func inline(t testing.TB, html string) *goquery.Document {
	doc, err := Parse([]byte(html))
	require.NoError(t, err)
	return doc
}

func ptr[T any](v T) *T {
	return &v
}

func wib(year int, month time.Month, day, hour, minute, second int) *time.Time {
	t := time.Date(year, month, day, hour, minute, second, 0, timezone.Location)
	return &t
}

func TestUser(t *testing.T) {
	user, err := User(fixture(t, "dashboard.html"))
	require.NoError(t, err)
	require.Equal(t, model.User{Name: "Jane Doe", Nim: "1234567"}, user)

	user, err = User(inline(t, `<div class="user-profile"><p class="profile-text">Jane Doe 1234567</p></div>`))
	require.NoError(t, err)
	require.Equal(t, model.User{Name: "Jane Doe", Nim: "1234567"}, user)
}

func TestUserFailures(t *testing.T) {
	_, err := User(inline(t, `<div class="user-profile"></div>`))
	require.ErrorIs(t, err, model.ErrElementNotFound)

	_, err = User(inline(t, `<div class="user-profile"><p class="profile-text">  </p></div>`))
	require.ErrorIs(t, err, model.ErrParsing)

	_, err = User(inline(t, `<div class="user-profile"><p class="profile-text">1234567</p></div>`))
	require.ErrorIs(t, err, model.ErrParsing)
}

func TestCourses(t *testing.T) {
	courses, err := Courses(fixture(t, "dashboard.html"))
	require.NoError(t, err)

	expected := []model.Course{
		{
			Id:           2510009532,
			Code:         "IK301",
			Name:         "Basis Data",
			Credits:      3,
			Lecturer:     "Dr. Budi Santoso, M.Kom.",
			AcademicYear: "2025/2026 - Ganjil",
			Href:         "/mhs/matakuliah/2510009532",
		},
		{
			Id:           2510009533,
			Code:         "IK302",
			Name:         "Rekayasa Perangkat Lunak",
			Credits:      2,
			Lecturer:     "Siti Aminah, M.T.",
			AcademicYear: "2025/2026 - Ganjil",
			Href:         "https://spot.upi.edu/mhs/matakuliah/2510009533/",
		},
	}
	require.Empty(t, cmp.Diff(expected, courses))

	period, err := model.ParseAcademicYear(courses[0].AcademicYear)
	require.NoError(t, err)
	require.Equal(t, "20251", period.Format())
}

func TestCoursesFailures(t *testing.T) {
	_, err := Courses(inline(t, `<table id="other"></table>`))
	require.ErrorIs(t, err, model.ErrElementNotFound)

	courses, err := Courses(inline(t, `<table id="tabel-mk"><tbody></tbody></table>`))
	require.NoError(t, err)
	require.Empty(t, courses)

	_, err = Courses(inline(t, `<table id="tabel-mk"><tbody><tr>
		<td>IK1</td><td><a href="/mhs/matakuliah/1">A</a></td><td>banyak</td><td>X</td><td>2025/2026 - Genap</td>
	</tr></tbody></table>`))
	require.ErrorIs(t, err, model.ErrParsing)

	_, err = Courses(inline(t, `<table id="tabel-mk"><tbody><tr>
		<td><a href="/mhs/matakuliah/1">A</a></td>
	</tr></tbody></table>`))
	require.ErrorIs(t, err, model.ErrParsing)
}

func TestCourseDetail(t *testing.T) {
	course := model.Course{Id: 2510009532, Name: "Basis Data", Href: "/mhs/matakuliah/2510009532"}
	detail, err := CourseDetail(fixture(t, "course_detail.html"), course)
	require.NoError(t, err)

	expected := model.DetailCourse{
		Course:      course,
		Description: "Mata kuliah ini membahas perancangan basis data relasional.",
		Rps: model.Rps{
			Id:   ptr[uint64](88123),
			Href: ptr("/mhs/rps/88123"),
		},
		Topics: []model.TopicInfo{
			{
				Id:           ptr[uint64](1358801),
				CourseId:     ptr[uint64](2510009532),
				AccessTime:   wib(2025, time.September, 1, 8, 30, 0),
				IsAccessible: true,
				Href:         ptr("/mhs/topik/2510009532/1358801"),
			},
			{
				Id:           ptr[uint64](1358802),
				CourseId:     ptr[uint64](2510009532),
				AccessTime:   wib(2025, time.September, 8, 10, 15, 0),
				IsAccessible: true,
				Href:         ptr("/mhs/topik/2510009532/1358802"),
			},
			{
				Id:           ptr[uint64](1358803),
				CourseId:     ptr[uint64](2510009532),
				IsAccessible: false,
			},
		},
	}
	require.Empty(t, cmp.Diff(expected, detail))
}

func TestCourseDetailWithoutRps(t *testing.T) {
	detail, err := CourseDetail(inline(t, `<div id="deskripsi-mk"></div>`), model.Course{Id: 1})
	require.NoError(t, err)
	require.Nil(t, detail.Rps.Id)
	require.Nil(t, detail.Rps.Href)
	require.Empty(t, detail.Topics)
	require.Equal(t, "", detail.Description)
}

func TestDetailPagesRequireContainers(t *testing.T) {
	errorPage := `<h1>Terjadi kesalahan</h1><p>Halaman tidak tersedia.</p>`

	_, err := CourseDetail(inline(t, errorPage), model.Course{Id: 1})
	require.ErrorIs(t, err, model.ErrElementNotFound)

	_, err = TopicDetail(inline(t, errorPage), 1, 2, "/mhs/topik/2/1")
	require.ErrorIs(t, err, model.ErrElementNotFound)
}

func TestTopicDetail(t *testing.T) {
	href := "/mhs/topik/2510009532/1358801"
	detail, err := TopicDetail(fixture(t, "topic_detail.html"), 1358801, 2510009532, href)
	require.NoError(t, err)

	require.Equal(t, uint64(1358801), detail.Id)
	require.Equal(t, href, detail.Href)
	require.True(t, detail.IsAccessible)
	require.Equal(t, "Pengenalan model relasional.", *detail.Description)
	require.True(t, detail.AccessTime.Equal(*wib(2025, time.September, 1, 8, 30, 0)))

	require.Len(t, detail.Contents, 2)
	require.Equal(t, uint32(501), detail.Contents[0].Id)
	require.Equal(t, "dQw4w9WgXcQ", *detail.Contents[0].YoutubeId)
	require.True(t, strings.HasPrefix(detail.Contents[0].RawHtml, "<p>Silakan tonton video berikut.</p>"))
	require.Nil(t, detail.Contents[1].YoutubeId)
	require.Equal(t, "<p>Bacaan <b>wajib</b>.</p>", detail.Contents[1].RawHtml)

	require.Len(t, detail.Tasks, 2)
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, timezone.Location)

	graded := detail.Tasks[0]
	expected := model.Task{
		Id:          ptr[uint64](7001),
		CourseId:    2510009532,
		TopicId:     1358801,
		Token:       "form-token",
		Title:       "Tugas 1: ERD",
		Description: "Buat ERD untuk sistem perpustakaan.",
		File:        ptr("/storage/tugas/erd.pdf"),
		StartDate:   wib(2025, time.September, 1, 8, 0, 0),
		DueDate:     wib(2025, time.September, 8, 23, 59, 0),
		Answer: &model.Answer{
			Id:            ptr[uint64](9001),
			Content:       "Terlampir ERD saya.",
			FileHref:      ptr("/storage/jawaban/erd-jane.pdf"),
			IsGraded:      true,
			LecturerNotes: "Relasi sudah tepat.",
			Score:         87.5,
			SubmittedAt:   wib(2025, time.September, 7, 20, 0, 0),
		},
	}
	require.Empty(t, cmp.Diff(expected, graded))
	require.Equal(t, model.Graded, graded.Status(now))

	open := detail.Tasks[1]
	require.Equal(t, uint64(7002), *open.Id)
	require.Equal(t, "page-token", open.Token)
	require.Nil(t, open.Answer)
	require.Nil(t, open.File)
	require.Nil(t, open.StartDate)
	require.Equal(t, model.Pending, open.Status(now))
}

func TestTopicDetailInvalidContent(t *testing.T) {
	_, err := TopicDetail(inline(t, `<div id="topik"><div class="konten-item" data-id="x"></div></div>`), 1, 2, "/mhs/topik/2/1")
	require.ErrorIs(t, err, model.ErrParsing)
}

func TestAnswerGradedFromScore(t *testing.T) {
	detail, err := TopicDetail(inline(t, `<div id="topik"><div class="tugas-item">
		<input name="id_tg" value="1">
		<div class="jawaban" data-id="2"><span class="jawaban-nilai">90</span></div>
	</div>
	<div class="tugas-item">
		<input name="id_tg" value="3">
		<div class="jawaban" data-id="4"><span class="jawaban-nilai">-</span></div>
	</div></div>`), 1, 2, "/mhs/topik/2/1")
	require.NoError(t, err)
	require.True(t, detail.Tasks[0].Answer.IsGraded)
	require.Equal(t, float32(90), detail.Tasks[0].Answer.Score)
	require.False(t, detail.Tasks[1].Answer.IsGraded)
	require.Equal(t, model.Submitted, detail.Tasks[1].CurrentStatus())
}

func TestYoutubeId(t *testing.T) {
	require.Equal(t, "abc123", *youtubeId("https://www.youtube.com/embed/abc123"))
	require.Equal(t, "abc123", *youtubeId("//www.youtube.com/embed/abc123?autoplay=1"))
	require.Equal(t, "abc123", *youtubeId("https://www.youtube.com/watch?v=abc123"))
	require.Equal(t, "abc123", *youtubeId("https://youtu.be/abc123"))
	require.Nil(t, youtubeId(""))
}

func TestParseTime(t *testing.T) {
	cases := map[string]*time.Time{
		"Senin, 01 Desember 2025 23.59 WIB": wib(2025, time.December, 1, 23, 59, 0),
		"1 Mei 2025":                        wib(2025, time.May, 1, 0, 0, 0),
		"17 Agustus 2025, 10:00":            wib(2025, time.August, 17, 10, 0, 0),
		"2025-02-03 04:05:06":               wib(2025, time.February, 3, 4, 5, 6),
		"2025-02-03":                        wib(2025, time.February, 3, 0, 0, 0),
		"03/02/2025 07:00":                  wib(2025, time.February, 3, 7, 0, 0),
	}
	for value, expected := range cases {
		parsed := ParseTime(value)
		require.NotNil(t, parsed, value)
		require.True(t, expected.Equal(*parsed), "%s: got %s", value, parsed)
		require.Equal(t, timezone.Location, parsed.Location())
	}

	require.Nil(t, ParseTime(""))
	require.Nil(t, ParseTime("   "))
	require.Nil(t, ParseTime("besok"))
}
