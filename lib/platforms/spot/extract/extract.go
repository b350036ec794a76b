// Package extract turns portal pages into model records. Extractors never
// touch the network or a cache.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"spotifier-core/lib/htmlutil"
	"spotifier-core/lib/platforms/spot/model"

	"github.com/PuerkitoBio/goquery"
)

func Parse(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrParsing, err)
	}
	return doc, nil
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", model.ErrElementNotFound, what)
}

func parseUint(value string, bits int) (uint64, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, bits)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func optionalId(value string) *uint64 {
	id, ok := parseUint(value, 64)
	if !ok {
		return nil
	}
	return &id
}

// trailingId reads the id in the last path segment of href, as in
// "/mhs/matakuliah/2510009532".
func trailingId(href string) *uint64 {
	return optionalId(htmlutil.TrailingSegment(href))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func attrString(sel *goquery.Selection, name string) *string {
	return optionalString(htmlutil.Attr(sel, name))
}

func User(doc *goquery.Document) (model.User, error) {
	profile := doc.Find(".user-profile .profile-text").First()
	if profile.Length() == 0 {
		return model.User{}, notFound("user profile text")
	}

	parts := strings.Fields(htmlutil.Text(profile))
	if len(parts) == 0 {
		return model.User{}, fmt.Errorf("%w: could not extract nim", model.ErrParsing)
	}
	nim := parts[len(parts)-1]
	name := strings.Join(parts[:len(parts)-1], " ")
	if name == "" {
		return model.User{}, fmt.Errorf("%w: could not extract user name", model.ErrParsing)
	}
	return model.User{Name: name, Nim: nim}, nil
}

// parseCredits accepts "3" as well as "3 SKS".
func parseCredits(text string) (uint8, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty credits", model.ErrParsing)
	}
	credits, ok := parseUint(fields[0], 8)
	if !ok {
		return 0, fmt.Errorf("%w: invalid credits %q", model.ErrParsing, text)
	}
	return uint8(credits), nil
}

// Courses reads the course table of the student dashboard, the columns are
// code, name (linking to the course page), credits, lecturer and academic
// year.
func Courses(doc *goquery.Document) ([]model.Course, error) {
	table := doc.Find("table#tabel-mk")
	if table.Length() == 0 {
		return nil, notFound("course table")
	}

	courses := []model.Course{}
	var rowErr error
	table.Find("tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		anchor := row.Find("a[href]").First()
		if anchor.Length() == 0 {
			return true
		}
		cells := row.Find("td")
		if cells.Length() < 5 {
			rowErr = fmt.Errorf("%w: course row %d has %d columns", model.ErrParsing, i, cells.Length())
			return false
		}

		href := htmlutil.Attr(anchor, "href")
		id := trailingId(href)
		if id == nil {
			rowErr = fmt.Errorf("%w: course row %d has no id in %q", model.ErrParsing, i, href)
			return false
		}
		credits, err := parseCredits(htmlutil.Text(cells.Eq(2)))
		if err != nil {
			rowErr = fmt.Errorf("course row %d: %w", i, err)
			return false
		}

		courses = append(courses, model.Course{
			Id:           *id,
			Code:         htmlutil.Text(cells.Eq(0)),
			Name:         htmlutil.Text(anchor),
			Credits:      credits,
			Lecturer:     htmlutil.Text(cells.Eq(3)),
			AcademicYear: htmlutil.Text(cells.Eq(4)),
			Href:         href,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return courses, nil
}

func CourseDetail(doc *goquery.Document, course model.Course) (model.DetailCourse, error) {
	description := doc.Find("#deskripsi-mk").First()
	if description.Length() == 0 {
		return model.DetailCourse{}, notFound("course description")
	}

	detail := model.DetailCourse{
		Course:      course,
		Description: htmlutil.Text(description),
		Topics:      []model.TopicInfo{},
	}

	rps := doc.Find("a#rps").First()
	if rps.Length() > 0 {
		href := htmlutil.Attr(rps, "href")
		detail.Rps = model.Rps{
			Id:   trailingId(href),
			Href: optionalString(href),
		}
	}

	doc.Find(".topik-item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a.topik-link").First()
		href := attrString(link, "href")

		courseId := optionalId(htmlutil.Attr(item, "data-course"))
		if courseId == nil {
			id := course.Id
			courseId = &id
		}

		detail.Topics = append(detail.Topics, model.TopicInfo{
			Id:           optionalId(htmlutil.Attr(item, "data-id")),
			CourseId:     courseId,
			AccessTime:   ParseTime(htmlutil.Text(item.Find(".akses-terakhir"))),
			IsAccessible: href != nil && !item.HasClass("locked"),
			Href:         href,
		})
	})

	return detail, nil
}

// youtubeId reads the video id out of an embed, watch or short link.
func youtubeId(src string) *string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	link, err := url.Parse(src)
	if err != nil {
		return nil
	}
	if v := link.Query().Get("v"); v != "" {
		return &v
	}
	segment := htmlutil.TrailingSegment(link.Path)
	if segment == "" || segment == "watch" {
		return nil
	}
	return &segment
}

func parseScore(text string) (float32, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if text == "" || text == "-" {
		return 0, false
	}
	fields := strings.Fields(text)
	score, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return 0, false
	}
	return float32(score), true
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "ya", "yes":
		return true
	}
	return false
}

func answer(block *goquery.Selection) *model.Answer {
	if block.Length() == 0 {
		return nil
	}
	score, scored := parseScore(htmlutil.Text(block.Find(".jawaban-nilai")))
	graded := parseFlag(htmlutil.Attr(block, "data-dinilai"))
	if _, ok := block.Attr("data-dinilai"); !ok {
		graded = scored
	}
	return &model.Answer{
		Id:            optionalId(htmlutil.Attr(block, "data-id")),
		Content:       htmlutil.Text(block.Find(".jawaban-isi")),
		FileHref:      attrString(block.Find("a.jawaban-file").First(), "href"),
		IsGraded:      graded,
		LecturerNotes: htmlutil.Text(block.Find(".jawaban-catatan")),
		Score:         score,
		SubmittedAt:   ParseTime(htmlutil.Attr(block, "data-tanggal")),
	}
}

// TopicDetail reads a topic page: its description, learning contents and
// tasks. href is the page the document was fetched from.
func TopicDetail(doc *goquery.Document, topicId, courseId uint64, href string) (model.TopicDetail, error) {
	page := doc.Find("#topik").First()
	if page.Length() == 0 {
		return model.TopicDetail{}, notFound("topic container")
	}

	detail := model.TopicDetail{
		Id:           topicId,
		AccessTime:   ParseTime(htmlutil.Text(page.Find(".akses-terakhir").First())),
		IsAccessible: page.Find(".topik-terkunci").Length() == 0,
		Href:         href,
		Description:  optionalString(htmlutil.Text(page.Find("#deskripsi-topik"))),
		Contents:     []model.Content{},
		Tasks:        []model.Task{},
	}

	var contentErr error
	page.Find(".konten-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		id, ok := parseUint(htmlutil.Attr(item, "data-id"), 32)
		if !ok {
			contentErr = fmt.Errorf("%w: content %d has an invalid id", model.ErrParsing, i)
			return false
		}
		raw, err := item.Find(".konten-body").First().Html()
		if err != nil {
			contentErr = fmt.Errorf("%w: content %d: %w", model.ErrParsing, i, err)
			return false
		}
		detail.Contents = append(detail.Contents, model.Content{
			Id:        uint32(id),
			YoutubeId: youtubeId(htmlutil.Attr(item.Find("iframe[src*=youtu]").First(), "src")),
			RawHtml:   strings.TrimSpace(raw),
		})
		return true
	})
	if contentErr != nil {
		return model.TopicDetail{}, contentErr
	}

	pageToken := htmlutil.Attr(doc.Find("meta[name=csrf-token]").First(), "content")
	page.Find(".tugas-item").Each(func(_ int, item *goquery.Selection) {
		token := htmlutil.Attr(item.Find("input[name=_token]").First(), "value")
		if token == "" {
			token = pageToken
		}

		taskId := optionalId(htmlutil.Attr(item.Find("input[name=id_tg]").First(), "value"))
		if taskId == nil {
			taskId = optionalId(htmlutil.Attr(item, "data-id"))
		}

		detail.Tasks = append(detail.Tasks, model.Task{
			Id:          taskId,
			CourseId:    courseId,
			TopicId:     topicId,
			Token:       token,
			Title:       htmlutil.Text(item.Find(".tugas-judul").First()),
			Description: htmlutil.Text(item.Find(".tugas-deskripsi").First()),
			File:        attrString(item.Find("a.tugas-file").First(), "href"),
			StartDate:   ParseTime(htmlutil.Attr(item, "data-mulai")),
			DueDate:     ParseTime(htmlutil.Attr(item, "data-selesai")),
			Answer:      answer(item.Find(".jawaban").First()),
		})
	})

	return detail, nil
}
