// Package spottest runs an in-process identity provider and portal that
// speak the same redirects and markup as the real ones.
package spottest

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"spotifier-core/lib/platforms/spot/model"
)

const (
	Nim      = "1234567"
	Password = "correct horse"
	Name     = "Jane Doe"

	CourseId  uint64 = 2510009532
	TopicId   uint64 = 1358801
	TaskId    uint64 = 7001
	AnswerId  uint64 = 9001
	FormToken        = "form-token"

	execution      = "e1s1"
	ticket         = "ST-1-fake"
	portalCookie   = "spot_session"
	portalSession  = "portal-session-1"
	ssoCookie      = "TGC"
	ssoSession     = "TGT-1-fake"
	defaultPeriod  = "20251"
	defaultDueDate = "2099-09-08 23:59"
	submittedNotes = "Belum dinilai"
)

type Submission struct {
	Token    string
	CourseId string
	TopicId  string
	TaskId   string
	Content  string
	FileName string
	FileData []byte
}

// Server is a fake identity provider and portal pair. they listen on
// different hosts ("localhost" and "127.0.0.1") so their cookies do not
// mix.
type Server struct {
	Sso    *httptest.Server
	Portal *httptest.Server

	lock         sync.Mutex
	sessionValid bool
	omitToken    bool
	period       string
	dueDate      string
	submission   *Submission
	requests     []string
}

func NewServer() *Server {
	s := &Server{period: defaultPeriod, dueDate: defaultDueDate}
	s.Sso = httptest.NewServer(http.HandlerFunc(s.serveSso))
	s.Portal = httptest.NewServer(http.HandlerFunc(s.servePortal))
	return s
}

func (s *Server) Close() {
	s.Sso.Close()
	s.Portal.Close()
}

// SsoUrl is the identity provider base url, served on "localhost".
func (s *Server) SsoUrl() string {
	return strings.Replace(s.Sso.URL, "127.0.0.1", "localhost", 1)
}

func (s *Server) PortalUrl() string {
	return s.Portal.URL
}

// Expire invalidates the portal session server-side.
func (s *Server) Expire() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sessionValid = false
}

// OmitToken makes the login page render without its execution token.
func (s *Server) OmitToken() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.omitToken = true
}

// SetDueDate changes the deadline rendered for the task, formatted like
// "2006-01-02 15:04".
func (s *Server) SetDueDate(due string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.dueDate = due
}

func (s *Server) Period() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.period
}

func (s *Server) Submission() *Submission {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.submission
}

// Requests lists "METHOD path" for every request the portal received.
func (s *Server) Requests() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.requests...)
}

func render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	tmpl.Execute(w, data)
}

func (s *Server) loginUrl() string {
	service := s.PortalUrl() + "/beranda"
	return s.SsoUrl() + "/cas/login?" + url.Values{"service": {service}}.Encode()
}

func (s *Server) serveSso(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/cas/login" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.lock.Lock()
		omit := s.omitToken
		s.lock.Unlock()

		token := execution
		if omit {
			token = ""
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "sso-jsession", Path: "/"})
		render(w, http.StatusOK, loginPage, map[string]any{"Execution": token, "Error": ""})
	case http.MethodPost:
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("execution") != execution || r.PostForm.Get("_eventId") != "submit" {
			http.Error(w, "invalid flow", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("username") != Nim || r.PostForm.Get("password") != Password {
			render(w, http.StatusUnauthorized, loginPage, map[string]any{
				"Execution": execution,
				"Error":     "Invalid credentials.",
			})
			return
		}
		service := r.URL.Query().Get("service")
		if service == "" {
			http.Error(w, "missing service", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: ssoCookie, Value: ssoSession, Path: "/"})
		http.Redirect(w, r, service+"?ticket="+ticket, http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	cookie, err := r.Cookie(portalCookie)
	if err != nil || cookie.Value != portalSession {
		return false
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sessionValid
}

func (s *Server) servePortal(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.lock.Unlock()

	if r.URL.Path == "/beranda" && r.URL.Query().Get("ticket") == ticket {
		s.lock.Lock()
		s.sessionValid = true
		s.lock.Unlock()
		http.SetCookie(w, &http.Cookie{Name: portalCookie, Value: portalSession, Path: "/"})
		http.Redirect(w, r, "/mhs", http.StatusFound)
		return
	}
	if !s.authorized(r) {
		http.Redirect(w, r, s.loginUrl(), http.StatusFound)
		return
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/mhs" || r.URL.Path == "/beranda":
		render(w, http.StatusOK, dashboardPage, s.dashboard())
	case len(segments) == 3 && segments[0] == "mhs" && segments[1] == "matakuliah":
		if segments[2] != strconv.FormatUint(CourseId, 10) {
			http.NotFound(w, r)
			return
		}
		render(w, http.StatusOK, coursePage, nil)
	case len(segments) == 4 && segments[0] == "mhs" && segments[1] == "topik":
		if segments[2] != strconv.FormatUint(CourseId, 10) || segments[3] != strconv.FormatUint(TopicId, 10) {
			http.NotFound(w, r)
			return
		}
		render(w, http.StatusOK, topicPage, s.topic())
	case r.URL.Path == "/mhs/tugas_store" && r.Method == http.MethodPost:
		s.storeSubmission(w, r)
	case len(segments) == 5 && segments[0] == "mhs" && segments[1] == "tugas_del":
		s.deleteSubmission(w, r, segments[2], segments[3], segments[4])
	case len(segments) == 3 && segments[0] == "adm" && segments[1] == "semester":
		s.changePeriod(w, r, segments[2])
	case r.URL.Path == "/adm":
		w.Write([]byte("<html><body>admin</body></html>"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) dashboard() map[string]any {
	s.lock.Lock()
	defer s.lock.Unlock()
	period, err := model.ParsePeriodCode(s.period)
	if err != nil {
		panic(err)
	}
	return map[string]any{
		"Name":         Name,
		"Nim":          Nim,
		"CourseId":     CourseId,
		"AcademicYear": period.Label(),
	}
}

func (s *Server) topic() map[string]any {
	s.lock.Lock()
	defer s.lock.Unlock()
	data := map[string]any{
		"CourseId": CourseId,
		"TopicId":  TopicId,
		"TaskId":   TaskId,
		"Token":    FormToken,
		"DueDate":  s.dueDate,
	}
	if s.submission != nil {
		data["Answer"] = map[string]any{
			"Id":      AnswerId,
			"Content": s.submission.Content,
			"File":    s.submission.FileName,
			"Notes":   submittedNotes,
		}
	}
	return data
}

func (s *Server) storeSubmission(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(8 << 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	submission := &Submission{
		Token:    r.FormValue("_token"),
		CourseId: r.FormValue("id_pn"),
		TopicId:  r.FormValue("id_pt"),
		TaskId:   r.FormValue("id_tg"),
		Content:  r.FormValue("isi"),
	}
	if submission.Token != FormToken {
		// laravel answers a stale csrf token with 419
		http.Error(w, "page expired", 419)
		return
	}
	if submission.TaskId != strconv.FormatUint(TaskId, 10) {
		http.Error(w, "unknown task", http.StatusUnprocessableEntity)
		return
	}
	file, header, err := r.FormFile("filename")
	if err == nil {
		defer file.Close()
		submission.FileName = header.Filename
		submission.FileData, err = io.ReadAll(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	s.lock.Lock()
	s.submission = submission
	s.lock.Unlock()

	http.Redirect(w, r, "/mhs/topik/"+submission.CourseId+"/"+submission.TopicId, http.StatusFound)
}

func (s *Server) deleteSubmission(w http.ResponseWriter, r *http.Request, courseId, topicId, answerId string) {
	s.lock.Lock()
	found := s.submission != nil && answerId == strconv.FormatUint(AnswerId, 10)
	if found {
		s.submission = nil
	}
	s.lock.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/mhs/topik/"+courseId+"/"+topicId, http.StatusFound)
}

func (s *Server) changePeriod(w http.ResponseWriter, r *http.Request, code string) {
	period, err := model.ParsePeriodCode(code)
	if err != nil || period.Year < 2000 || period.Year > 2100 {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	s.lock.Lock()
	s.period = period.Format()
	s.lock.Unlock()
	http.Redirect(w, r, "/adm", http.StatusFound)
}
