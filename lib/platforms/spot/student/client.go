package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"spotifier-core/lib/cache"
	"spotifier-core/lib/platforms/spot/core"
	"spotifier-core/lib/platforms/spot/extract"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/textutil"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("spotifier.spot.student")

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrNoCache        = errors.New("no cache backend configured")
)

const (
	coursesKey = "courses"
	sessionKey = "session"

	DefaultCourseListLifetime = time.Hour
	DefaultSessionLifetime    = 12 * time.Hour

	dashboardPath = "/mhs"
	// the lowest Jaro-Winkler similarity FindCourse accepts
	courseMatchThreshold = 0.8
)

type ClientOptions struct {
	// if nil, nothing is cached
	Cache cache.Backend
	// isolates this client's entries when the backend is shared
	CachePrefix string
	// if zero, DefaultCourseListLifetime
	CourseListLifetime time.Duration
	// if zero, DefaultSessionLifetime
	SessionLifetime time.Duration
}

// Client is the student facing view of the portal, backed by an
// authenticated core.Client.
type Client struct {
	core            *core.Client
	cache           cache.Backend
	courseLifetime  time.Duration
	sessionLifetime time.Duration
}

func NewClient(coreClient *core.Client, opts ClientOptions) *Client {
	c := &Client{
		core:            coreClient,
		courseLifetime:  opts.CourseListLifetime,
		sessionLifetime: opts.SessionLifetime,
	}
	if opts.Cache != nil {
		c.cache = cache.Namespaced(opts.Cache, opts.CachePrefix)
	}
	if c.courseLifetime <= 0 {
		c.courseLifetime = DefaultCourseListLifetime
	}
	if c.sessionLifetime <= 0 {
		c.sessionLifetime = DefaultSessionLifetime
	}
	return c
}

func (c *Client) Core() *core.Client {
	return c.core
}

func fail(span trace.Span, err error, message string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	return err
}

// cacheWarning records a cache failure without failing the operation.
func cacheWarning(ctx context.Context, span trace.Span, err error, message string) {
	span.RecordError(err)
	span.AddEvent("CACHE ERROR", trace.WithAttributes(attribute.KeyValue{
		Key:   "log.severity",
		Value: attribute.StringValue("WARN"),
	}))
	slog.WarnContext(ctx, message, "err", err)
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	doc, err := c.core.FetchHtml(ctx, dashboardPath)
	if err != nil {
		return model.User{}, fail(span, err, "failed to fetch dashboard")
	}
	user, err := extract.User(doc)
	if err != nil {
		return model.User{}, fail(span, err, "failed to extract profile")
	}
	return user, nil
}

func (c *Client) cachedCourses(ctx context.Context, span trace.Span) ([]model.Course, bool) {
	if c.cache == nil {
		return nil, false
	}
	cached, ok := c.cache.Get(ctx, coursesKey)
	if !ok {
		return nil, false
	}
	var courses []model.Course
	err := json.Unmarshal([]byte(cached), &courses)
	if err != nil {
		cacheWarning(ctx, span, err, "discarding unreadable cached course list")
		return nil, false
	}
	return courses, true
}

// Courses lists the courses of the active period. the list is cached for
// CourseListLifetime.
func (c *Client) Courses(ctx context.Context) ([]model.Course, error) {
	ctx, span := tracer.Start(ctx, "client:Courses")
	defer span.End()

	courses, ok := c.cachedCourses(ctx, span)
	if ok {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return courses, nil
	}

	doc, err := c.core.FetchHtml(ctx, dashboardPath)
	if err != nil {
		return nil, fail(span, err, "failed to fetch dashboard")
	}
	courses, err = extract.Courses(doc)
	if err != nil {
		return nil, fail(span, err, "failed to extract courses")
	}

	if c.cache != nil {
		serialized, err := json.Marshal(courses)
		if err == nil {
			err = c.cache.Set(ctx, coursesKey, string(serialized), c.courseLifetime)
		}
		if err != nil {
			cacheWarning(ctx, span, err, "failed to cache course list")
		}
	}
	return courses, nil
}

func (c *Client) CourseDetail(ctx context.Context, course model.Course) (model.DetailCourse, error) {
	ctx, span := tracer.Start(ctx, "client:CourseDetail")
	defer span.End()
	span.SetAttributes(attribute.Int64("course_id", int64(course.Id)))

	doc, err := c.core.FetchHtml(ctx, course.Href)
	if err != nil {
		return model.DetailCourse{}, fail(span, err, "failed to fetch course page")
	}
	detail, err := extract.CourseDetail(doc, course)
	if err != nil {
		return model.DetailCourse{}, fail(span, err, "failed to extract course detail")
	}
	return detail, nil
}

func (c *Client) findCourseById(ctx context.Context, id uint64) (model.Course, error) {
	courses, err := c.Courses(ctx)
	if err != nil {
		return model.Course{}, err
	}
	for _, course := range courses {
		if course.Id == id {
			return course, nil
		}
	}
	return model.Course{}, fmt.Errorf("%w: id %d", ErrCourseNotFound, id)
}

func (c *Client) CourseDetailById(ctx context.Context, id uint64) (model.DetailCourse, error) {
	course, err := c.findCourseById(ctx, id)
	if err != nil {
		return model.DetailCourse{}, err
	}
	return c.CourseDetail(ctx, course)
}

// FindCourse returns the course whose code matches query exactly, or else
// the one whose name is most similar to it.
func (c *Client) FindCourse(ctx context.Context, query string) (model.Course, error) {
	ctx, span := tracer.Start(ctx, "client:FindCourse")
	defer span.End()

	courses, err := c.Courses(ctx)
	if err != nil {
		return model.Course{}, fail(span, err, "failed to list courses")
	}

	normalized := textutil.NormalizeName(query)
	var best model.Course
	bestScore := 0.0
	for _, course := range courses {
		if strings.EqualFold(strings.TrimSpace(query), course.Code) {
			return course, nil
		}
		score := matchr.JaroWinkler(normalized, textutil.NormalizeName(course.Name), false)
		if score > bestScore {
			best = course
			bestScore = score
		}
	}
	span.SetAttributes(attribute.Float64("similarity", bestScore))
	if bestScore < courseMatchThreshold {
		return model.Course{}, fmt.Errorf("%w: %q", ErrCourseNotFound, query)
	}
	return best, nil
}

func topicPath(courseId, topicId uint64) string {
	return fmt.Sprintf("/mhs/topik/%d/%d", courseId, topicId)
}

func (c *Client) topicDetail(ctx context.Context, path string, courseId, topicId uint64) (model.TopicDetail, error) {
	ctx, span := tracer.Start(ctx, "client:TopicDetail")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("course_id", int64(courseId)),
		attribute.Int64("topic_id", int64(topicId)),
	)

	doc, err := c.core.FetchHtml(ctx, path)
	if err != nil {
		return model.TopicDetail{}, fail(span, err, "failed to fetch topic page")
	}
	detail, err := extract.TopicDetail(doc, topicId, courseId, path)
	if err != nil {
		return model.TopicDetail{}, fail(span, err, "failed to extract topic detail")
	}
	return detail, nil
}

// TopicDetail fetches a topic listed on a course page, topics that are
// missing their link or ids cannot be fetched.
func (c *Client) TopicDetail(ctx context.Context, topic model.TopicInfo) (model.TopicDetail, error) {
	switch {
	case topic.Href == nil:
		return model.TopicDetail{}, fmt.Errorf("%w: topic has no href", model.ErrParsing)
	case topic.CourseId == nil:
		return model.TopicDetail{}, fmt.Errorf("%w: topic has no course id", model.ErrParsing)
	case topic.Id == nil:
		return model.TopicDetail{}, fmt.Errorf("%w: topic has no id", model.ErrParsing)
	}
	return c.topicDetail(ctx, *topic.Href, *topic.CourseId, *topic.Id)
}

func (c *Client) TopicDetailById(ctx context.Context, courseId, topicId uint64) (model.TopicDetail, error) {
	return c.topicDetail(ctx, topicPath(courseId, topicId), courseId, topicId)
}

func acceptedStatus(res *resty.Response) bool {
	return res.StatusCode() >= 200 && res.StatusCode() < 400
}

// ChangePeriod switches the active academic period of the session, the
// cached course list is dropped since it belongs to the previous period.
func (c *Client) ChangePeriod(ctx context.Context, period model.Period) error {
	ctx, span := tracer.Start(ctx, "client:ChangePeriod")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.Format()))

	res, err := c.core.Get(ctx, "/adm/semester/"+period.Format())
	if err != nil {
		return fail(span, err, "failed to request period change")
	}

	if acceptedStatus(res) && strings.HasPrefix(core.FinalUrl(res).Path, "/adm") {
		if c.cache != nil {
			err = c.cache.Delete(ctx, coursesKey)
			if err != nil {
				cacheWarning(ctx, span, err, "failed to invalidate course list")
			}
		}
		return nil
	}

	if res.StatusCode() == 500 {
		err = fmt.Errorf("%w: period %s is not available", core.ErrInvalidPeriod, period.Format())
		return fail(span, err, "invalid period")
	}
	err = c.core.CheckSession(res)
	if err != nil {
		return fail(span, err, "session expired")
	}
	err = fmt.Errorf(
		"%w: unexpected response while changing period: status %d at %s",
		model.ErrParsing, res.StatusCode(), core.FinalUrl(res).Path,
	)
	return fail(span, err, "unexpected response")
}

// CurrentPeriod returns the academic year label of the active period, as in
// "2025/2026 - Ganjil".
func (c *Client) CurrentPeriod(ctx context.Context) (string, error) {
	courses, err := c.Courses(ctx)
	if err != nil {
		return "", err
	}
	if len(courses) == 0 {
		return "", fmt.Errorf("%w: no courses to determine the current period", model.ErrParsing)
	}
	return courses[0].AcademicYear, nil
}

type Upload struct {
	Name string
	Data []byte
}

type SubmitTaskRequest struct {
	CourseId uint64
	TopicId  uint64
	TaskId   uint64
	// csrf token rendered with the task
	Token   string
	Content string
	// optional
	File *Upload
}

// NewSubmitTaskRequest prefills a request from a task read off a topic page.
func NewSubmitTaskRequest(task model.Task, content string, file *Upload) (SubmitTaskRequest, error) {
	if task.Id == nil {
		return SubmitTaskRequest{}, fmt.Errorf("%w: task has no id", model.ErrParsing)
	}
	return SubmitTaskRequest{
		CourseId: task.CourseId,
		TopicId:  task.TopicId,
		TaskId:   *task.Id,
		Token:    task.Token,
		Content:  content,
		File:     file,
	}, nil
}

func (c *Client) SubmitTask(ctx context.Context, req SubmitTaskRequest) error {
	ctx, span := tracer.Start(ctx, "client:SubmitTask")
	defer span.End()
	span.SetAttributes(attribute.Int64("task_id", int64(req.TaskId)))

	if req.Token == "" {
		err := fmt.Errorf("%w: missing form token", core.ErrTaskSubmissionFailed)
		return fail(span, err, "missing token")
	}

	fields := map[string]string{
		"_token": req.Token,
		"id_pn":  strconv.FormatUint(req.CourseId, 10),
		"id_pt":  strconv.FormatUint(req.TopicId, 10),
		"id_tg":  strconv.FormatUint(req.TaskId, 10),
		"isi":    req.Content,
	}
	var file *core.File
	if req.File != nil {
		file = &core.File{Field: "filename", Name: req.File.Name, Data: req.File.Data}
	}

	res, err := c.core.PostMultipart(ctx, "/mhs/tugas_store", fields, file)
	if err != nil {
		return fail(span, err, "failed to post submission")
	}
	err = c.core.CheckSession(res)
	if err != nil {
		return fail(span, err, "session expired")
	}
	if !acceptedStatus(res) {
		err = fmt.Errorf("%w: status %d", core.ErrTaskSubmissionFailed, res.StatusCode())
		return fail(span, err, "submission rejected")
	}
	return nil
}

func (c *Client) DeleteSubmission(ctx context.Context, courseId, topicId, answerId uint64) error {
	ctx, span := tracer.Start(ctx, "client:DeleteSubmission")
	defer span.End()
	span.SetAttributes(attribute.Int64("answer_id", int64(answerId)))

	res, err := c.core.Get(ctx, fmt.Sprintf("/mhs/tugas_del/%d/%d/%d", courseId, topicId, answerId))
	if err != nil {
		return fail(span, err, "failed to request deletion")
	}
	err = c.core.CheckSession(res)
	if err != nil {
		return fail(span, err, "session expired")
	}
	if !acceptedStatus(res) {
		err = fmt.Errorf("%w: status %d", core.ErrTaskDeletionFailed, res.StatusCode())
		return fail(span, err, "deletion rejected")
	}
	return nil
}

// SaveSession stores the session cookies in the cache backend for
// SessionLifetime.
func (c *Client) SaveSession(ctx context.Context) error {
	if c.cache == nil {
		return ErrNoCache
	}
	serialized, err := json.Marshal(c.core.ExportSession())
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, sessionKey, string(serialized), c.sessionLifetime)
}

// RestoreSession loads cookies saved by SaveSession, it reports false when
// nothing was saved or the saved session has lapsed.
func (c *Client) RestoreSession(ctx context.Context) (bool, error) {
	if c.cache == nil {
		return false, ErrNoCache
	}
	cached, ok := c.cache.Get(ctx, sessionKey)
	if !ok {
		return false, nil
	}
	var session core.Session
	err := json.Unmarshal([]byte(cached), &session)
	if err != nil {
		return false, fmt.Errorf("%w: cached session: %w", model.ErrParsing, err)
	}
	err = c.core.ImportSession(session)
	if err != nil {
		return false, err
	}
	return true, nil
}
