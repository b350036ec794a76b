package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("spotifier.spot.core")

const (
	DefaultPortalUrl = "https://spot.upi.edu"
	DefaultSsoUrl    = "https://sso.upi.edu"

	// the page the identity provider redirects to after a successful login
	serviceLandingPath = "/beranda"
	loginFailFile      = "login_fail.html"
)

type State int

const (
	Anonymous State = iota
	TokenAcquired
	CredentialsSubmitted
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case TokenAcquired:
		return "token_acquired"
	case CredentialsSubmitted:
		return "credentials_submitted"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type ClientOptions struct {
	// if empty, DefaultPortalUrl
	PortalUrl string
	// if empty, DefaultSsoUrl
	SsoUrl string
	DispatcherOptions
}

// Client holds one authenticated session against the portal.
type Client struct {
	PortalUrl *url.URL
	SsoUrl    *url.URL

	dispatcher  *Dispatcher
	diagnostics restyutil.InstrumentOutput

	lock  sync.Mutex
	state State
}

func parseBaseUrl(value, fallback string) (*url.URL, error) {
	if value == "" {
		value = fallback
	}
	parsed, err := url.Parse(strings.TrimRight(value, "/"))
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", value)
	}
	return parsed, nil
}

func NewClient(opts ClientOptions) (*Client, error) {
	portalUrl, err := parseBaseUrl(opts.PortalUrl, DefaultPortalUrl)
	if err != nil {
		return nil, fmt.Errorf("portal url: %w", err)
	}
	ssoUrl, err := parseBaseUrl(opts.SsoUrl, DefaultSsoUrl)
	if err != nil {
		return nil, fmt.Errorf("sso url: %w", err)
	}
	dispatcher, err := NewDispatcher(opts.DispatcherOptions)
	if err != nil {
		return nil, err
	}
	return &Client{
		PortalUrl:   portalUrl,
		SsoUrl:      ssoUrl,
		dispatcher:  dispatcher,
		diagnostics: opts.Diagnostics,
		state:       Anonymous,
	}, nil
}

func (c *Client) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Client) setState(state State) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = state
}

func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// LoginUrl is the identity provider login page for the portal service.
func (c *Client) LoginUrl() string {
	login := c.SsoUrl.JoinPath("cas", "login")
	login.RawQuery = url.Values{
		"service": {c.PortalUrl.JoinPath(serviceLandingPath).String()},
	}.Encode()
	return login.String()
}

// Resolve makes a portal path (or an absolute href) into an absolute url.
func (c *Client) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid path %q: %w", ErrParsing, path, err)
	}
	return c.PortalUrl.ResolveReference(ref), nil
}

func parseDocument(res *resty.Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsing, err)
	}
	return doc, nil
}

// Login runs the identity provider flow: fetch the login page for its
// execution token, post the credentials to the url that served it, then
// check the redirects ended on the portal.
func (c *Client) Login(ctx context.Context, nim, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.dispatcher.Get(ctx, c.LoginUrl())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page")
		return err
	}

	execution := strings.TrimSpace(doc.Find("input[name=execution]").AttrOr("value", ""))
	if execution == "" {
		span.SetStatus(codes.Error, "failed to find login token")
		return ErrTokenNotFound
	}
	c.setState(TokenAcquired)

	actionUrl := FinalUrl(res).String()
	res, err = c.dispatcher.PostForm(ctx, actionUrl, map[string]string{
		"username":  nim,
		"password":  password,
		"execution": execution,
		"_eventId":  "submit",
	})
	if err != nil {
		c.setState(Anonymous)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit credentials")
		return err
	}
	c.setState(CredentialsSubmitted)

	err = c.dispatcher.Jitter(ctx)
	if err != nil {
		c.setState(Anonymous)
		return err
	}

	finalUrl := FinalUrl(res)
	span.SetAttributes(attribute.String("final_url", finalUrl.String()))
	if finalUrl.Host != c.PortalUrl.Host {
		c.setState(Anonymous)
		body := res.String()
		if c.diagnostics != nil {
			c.diagnostics.Write(loginFailFile, body)
		}
		slog.WarnContext(ctx, "login did not return to the portal", "final_url", finalUrl.String())

		authErr := &AuthError{FinalUrl: finalUrl.String(), Body: body}
		span.RecordError(authErr)
		span.SetStatus(codes.Error, "authentication failed")
		return authErr
	}

	c.setState(Authenticated)
	slog.DebugContext(ctx, "logged in", "final_url", finalUrl.String())
	return nil
}

func trimSlash(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// isSessionExpired reports whether a content fetch for requested was
// bounced elsewhere. the portal sends anonymous visitors back through the
// login page, so landing on the identity provider or on an unrelated path
// means the session is gone.
func (c *Client) isSessionExpired(requested, final *url.URL) bool {
	if final.Host == c.SsoUrl.Host && c.SsoUrl.Host != c.PortalUrl.Host {
		return true
	}
	if strings.HasPrefix(final.Path, requested.Path) {
		return false
	}
	return trimSlash(final.Path) != trimSlash(requested.Path)
}

// CheckSession fails with ErrSessionExpired when res was redirected to the
// identity provider, as the portal does for anonymous form posts.
func (c *Client) CheckSession(res *resty.Response) error {
	finalUrl := FinalUrl(res)
	if finalUrl.Host == c.SsoUrl.Host && c.SsoUrl.Host != c.PortalUrl.Host {
		c.setState(Expired)
		return fmt.Errorf("%w: redirected to %s", ErrSessionExpired, finalUrl.String())
	}
	return nil
}

// Get fetches a portal path without interpreting the response.
func (c *Client) Get(ctx context.Context, path string) (*resty.Response, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.Get(ctx, target.String())
}

// Fetch gets a content page, failing with ErrSessionExpired when the
// portal redirected away from it.
func (c *Client) Fetch(ctx context.Context, path string) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()

	target, err := c.Resolve(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid path")
		return nil, err
	}
	span.SetAttributes(attribute.String("url", target.String()))

	res, err := c.dispatcher.Get(ctx, target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	finalUrl := FinalUrl(res)
	if c.isSessionExpired(target, finalUrl) {
		c.setState(Expired)
		err = fmt.Errorf("%w: %s redirected to %s", ErrSessionExpired, target.Path, finalUrl.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "session expired")
		return nil, err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: %s returned status %d", ErrTransport, target.Path, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}
	return res, nil
}

// PostMultipart posts a multipart form to a portal path without
// interpreting the response.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file *File) (*resty.Response, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.PostMultipart(ctx, target.String(), fields, file)
}

func (c *Client) FetchHtml(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := c.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseDocument(res)
}

func (c *Client) SetDelayConfig(cfg model.DelayConfig) error {
	return c.dispatcher.SetDelayConfig(cfg)
}

func (c *Client) DelayConfig() model.DelayConfig {
	return c.dispatcher.DelayConfig()
}
