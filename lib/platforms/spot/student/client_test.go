package student

import (
	"context"
	"strings"
	"testing"

	"spotifier-core/lib/cache"
	"spotifier-core/lib/platforms/spot/core"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/spottest"
	"spotifier-core/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newCoreClient(t *testing.T, srv *spottest.Server) *core.Client {
	client, err := core.NewClient(core.ClientOptions{
		PortalUrl: srv.PortalUrl(),
		SsoUrl:    srv.SsoUrl(),
		DispatcherOptions: core.DispatcherOptions{
			Delay: &model.DelayConfig{Enabled: false},
		},
	})
	require.NoError(t, err)
	return client
}

func setup(t *testing.T, backend cache.Backend) (*Client, *spottest.Server) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{Name: "lib/platforms/spot/student"})
	t.Cleanup(cleanup)

	srv := spottest.NewServer()
	t.Cleanup(srv.Close)

	coreClient := newCoreClient(t, srv)
	require.NoError(t, coreClient.Login(context.Background(), spottest.Nim, spottest.Password))
	return NewClient(coreClient, ClientOptions{Cache: backend, CachePrefix: spottest.Nim}), srv
}

func countRequests(srv *spottest.Server, request string) int {
	count := 0
	for _, r := range srv.Requests() {
		if r == request {
			count++
		}
	}
	return count
}

func TestProfile(t *testing.T) {
	client, _ := setup(t, nil)

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.User{Name: spottest.Name, Nim: spottest.Nim}, user)
}

func TestCoursesCached(t *testing.T) {
	backend := cache.NewMemoryCache(16)
	client, srv := setup(t, backend)
	ctx := context.Background()

	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, spottest.CourseId, courses[0].Id)
	require.Equal(t, "IK301", courses[0].Code)
	require.Equal(t, uint8(3), courses[0].Credits)

	fetched := countRequests(srv, "GET /mhs")
	again, err := client.Courses(ctx)
	require.NoError(t, err)
	require.Equal(t, courses, again)
	require.Equal(t, fetched, countRequests(srv, "GET /mhs"))

	// entries are namespaced by the configured prefix
	_, ok := backend.Get(ctx, spottest.Nim+":"+coursesKey)
	require.True(t, ok)
}

func TestCoursesCorruptCache(t *testing.T) {
	backend := cache.NewMemoryCache(16)
	client, _ := setup(t, backend)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, spottest.Nim+":"+coursesKey, "{not json", DefaultCourseListLifetime))
	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
}

func TestCourseDetailById(t *testing.T) {
	client, _ := setup(t, nil)
	ctx := context.Background()

	detail, err := client.CourseDetailById(ctx, spottest.CourseId)
	require.NoError(t, err)
	require.Equal(t, "Basis Data", detail.Name)
	require.Equal(t, "Perancangan basis data relasional.", detail.Description)
	require.Len(t, detail.Topics, 2)
	require.True(t, detail.Topics[0].IsAccessible)
	require.False(t, detail.Topics[1].IsAccessible)

	topic, err := client.TopicDetail(ctx, detail.Topics[0])
	require.NoError(t, err)
	require.Equal(t, spottest.TopicId, topic.Id)
	require.Len(t, topic.Tasks, 1)

	_, err = client.TopicDetail(ctx, detail.Topics[1])
	require.ErrorIs(t, err, model.ErrParsing)

	_, err = client.CourseDetailById(ctx, 42)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestFindCourse(t *testing.T) {
	client, _ := setup(t, nil)
	ctx := context.Background()

	course, err := client.FindCourse(ctx, "ik302")
	require.NoError(t, err)
	require.Equal(t, "Rekayasa Perangkat Lunak", course.Name)

	course, err = client.FindCourse(ctx, "basis  data")
	require.NoError(t, err)
	require.Equal(t, spottest.CourseId, course.Id)

	course, err = client.FindCourse(ctx, "rekayasa perangkat")
	require.NoError(t, err)
	require.Equal(t, "IK302", course.Code)

	_, err = client.FindCourse(ctx, "kalkulus")
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSubmitAndDelete(t *testing.T) {
	client, srv := setup(t, nil)
	ctx := context.Background()

	topic, err := client.TopicDetailById(ctx, spottest.CourseId, spottest.TopicId)
	require.NoError(t, err)
	require.Len(t, topic.Tasks, 1)
	task := topic.Tasks[0]
	require.Nil(t, task.Answer)
	require.Equal(t, model.Pending, task.CurrentStatus())

	req, err := NewSubmitTaskRequest(task, "ERD terlampir", &Upload{Name: "erd.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	require.NoError(t, client.SubmitTask(ctx, req))

	submission := srv.Submission()
	require.NotNil(t, submission)
	require.Equal(t, spottest.FormToken, submission.Token)
	require.Equal(t, "2510009532", submission.CourseId)
	require.Equal(t, "1358801", submission.TopicId)
	require.Equal(t, "7001", submission.TaskId)
	require.Equal(t, "ERD terlampir", submission.Content)
	require.Equal(t, "erd.pdf", submission.FileName)
	require.Equal(t, []byte("%PDF-1.4"), submission.FileData)

	topic, err = client.TopicDetailById(ctx, spottest.CourseId, spottest.TopicId)
	require.NoError(t, err)
	task = topic.Tasks[0]
	require.NotNil(t, task.Answer)
	require.Equal(t, spottest.AnswerId, *task.Answer.Id)
	require.Equal(t, model.Submitted, task.CurrentStatus())

	require.NoError(t, client.DeleteSubmission(ctx, spottest.CourseId, spottest.TopicId, *task.Answer.Id))
	topic, err = client.TopicDetailById(ctx, spottest.CourseId, spottest.TopicId)
	require.NoError(t, err)
	require.Nil(t, topic.Tasks[0].Answer)
	require.Equal(t, model.Pending, topic.Tasks[0].CurrentStatus())

	err = client.DeleteSubmission(ctx, spottest.CourseId, spottest.TopicId, spottest.AnswerId)
	require.ErrorIs(t, err, core.ErrTaskDeletionFailed)
}

func TestPastDueSubmissionLifecycle(t *testing.T) {
	client, srv := setup(t, cache.NewMemoryCache(16))
	srv.SetDueDate("2025-09-08 23:59")
	ctx := context.Background()

	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, courses)

	detail, err := client.CourseDetailById(ctx, courses[0].Id)
	require.NoError(t, err)
	require.True(t, detail.Topics[0].IsAccessible)

	topic, err := client.TopicDetail(ctx, detail.Topics[0])
	require.NoError(t, err)
	require.Len(t, topic.Tasks, 1)
	task := topic.Tasks[0]
	require.Nil(t, task.Answer)
	require.Equal(t, model.NotSubmitted, task.CurrentStatus())

	req, err := NewSubmitTaskRequest(task, "ERD terlambat", nil)
	require.NoError(t, err)
	require.NoError(t, client.SubmitTask(ctx, req))

	topic, err = client.TopicDetail(ctx, detail.Topics[0])
	require.NoError(t, err)
	task = topic.Tasks[0]
	require.NotNil(t, task.Answer)
	require.NotNil(t, task.Answer.Id)
	require.Equal(t, spottest.AnswerId, *task.Answer.Id)
	require.Equal(t, model.Submitted, task.CurrentStatus())

	require.NoError(t, client.DeleteSubmission(ctx, task.CourseId, task.TopicId, *task.Answer.Id))

	topic, err = client.TopicDetail(ctx, detail.Topics[0])
	require.NoError(t, err)
	require.Nil(t, topic.Tasks[0].Answer)
	require.Equal(t, model.NotSubmitted, topic.Tasks[0].CurrentStatus())
}

func TestSubmitRejected(t *testing.T) {
	client, srv := setup(t, nil)
	ctx := context.Background()

	req := SubmitTaskRequest{
		CourseId: spottest.CourseId,
		TopicId:  spottest.TopicId,
		TaskId:   spottest.TaskId,
		Token:    "stale-token",
		Content:  "jawaban",
	}
	err := client.SubmitTask(ctx, req)
	require.ErrorIs(t, err, core.ErrTaskSubmissionFailed)
	require.Nil(t, srv.Submission())

	req.Token = ""
	err = client.SubmitTask(ctx, req)
	require.ErrorIs(t, err, core.ErrTaskSubmissionFailed)

	_, err = NewSubmitTaskRequest(model.Task{}, "jawaban", nil)
	require.ErrorIs(t, err, model.ErrParsing)
}

func TestSubmitExpiredSession(t *testing.T) {
	client, srv := setup(t, nil)
	srv.Expire()

	err := client.SubmitTask(context.Background(), SubmitTaskRequest{
		CourseId: spottest.CourseId,
		TopicId:  spottest.TopicId,
		TaskId:   spottest.TaskId,
		Token:    spottest.FormToken,
		Content:  "jawaban",
	})
	require.ErrorIs(t, err, core.ErrSessionExpired)
	require.Equal(t, core.Expired, client.Core().State())
	require.Nil(t, srv.Submission())
}

func TestChangePeriod(t *testing.T) {
	backend := cache.NewMemoryCache(16)
	client, srv := setup(t, backend)
	ctx := context.Background()

	label, err := client.CurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, "2025/2026 - Ganjil", label)

	err = client.ChangePeriod(ctx, model.Period{Year: 2024, Semester: model.Even})
	require.NoError(t, err)
	require.Equal(t, "20242", srv.Period())

	label, err = client.CurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024/2025 - Genap", label)

	err = client.ChangePeriod(ctx, model.Period{Year: 1990, Semester: model.Odd})
	require.ErrorIs(t, err, core.ErrInvalidPeriod)
	require.Equal(t, "20242", srv.Period())
}

func TestChangePeriodExpiredSession(t *testing.T) {
	client, srv := setup(t, nil)
	srv.Expire()

	err := client.ChangePeriod(context.Background(), model.Period{Year: 2024, Semester: model.Odd})
	require.ErrorIs(t, err, core.ErrSessionExpired)
}

func TestSessionRoundTrip(t *testing.T) {
	backend := cache.NewFileCache(t.TempDir())
	client, srv := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, client.SaveSession(ctx))

	restored := NewClient(newCoreClient(t, srv), ClientOptions{Cache: backend, CachePrefix: spottest.Nim})
	ok, err := restored.RestoreSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, core.Authenticated, restored.Core().State())

	user, err := restored.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, spottest.Nim, user.Nim)

	other := NewClient(newCoreClient(t, srv), ClientOptions{Cache: backend, CachePrefix: "someone-else"})
	ok, err = other.RestoreSession(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = NewClient(newCoreClient(t, srv), ClientOptions{}).RestoreSession(ctx)
	require.ErrorIs(t, err, ErrNoCache)
}

func TestCachedCoursesInvalidated(t *testing.T) {
	backend := cache.NewMemoryCache(16)
	client, _ := setup(t, backend)
	ctx := context.Background()

	_, err := client.Courses(ctx)
	require.NoError(t, err)
	require.NoError(t, client.ChangePeriod(ctx, model.Period{Year: 2023, Semester: model.Short}))

	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(courses[0].AcademicYear, "SP"))
}
