package core

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/restyutil"
	"spotifier-core/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("spotifier.spot.core")
var requestCounter, _ = meter.Int64Counter(
	"spot.dispatch.requests",
	metric.WithDescription("requests sent to the portal or its identity provider"),
)
var delayHistogram, _ = meter.Int64Histogram(
	"spot.dispatch.delay_ms",
	metric.WithDescription("pause taken before each request"),
	metric.WithUnit("ms"),
)

var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
}

const (
	loginJitterMinMs = 2000
	loginJitterMaxMs = 5000
)

type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type DispatcherOptions struct {
	// if nil, model.DefaultDelayConfig() is used
	Delay *model.DelayConfig
	// if nil, a source seeded from the current time is used
	Rand *rand.Rand
	// if nil, a timer that honors context cancellation is used
	Sleep SleepFunc
	// if empty, DefaultUserAgents is used
	UserAgents []string
	// if zero, 30 seconds
	Timeout time.Duration
	// if set, every request/response pair is dumped here when debug
	// logging is enabled
	Diagnostics restyutil.InstrumentOutput
}

// Dispatcher sends every request through one resty client, sharing one
// cookie jar. each request is preceded by a random pause and carries a
// freshly picked User-Agent.
type Dispatcher struct {
	http       *resty.Client
	jar        *cookiejar.Jar
	sleep      SleepFunc
	userAgents []string

	lock  sync.Mutex
	rand  *rand.Rand
	delay model.DelayConfig
}

type File struct {
	Field string
	Name  string
	Data  []byte
}

func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	delay := model.DefaultDelayConfig()
	if opts.Delay != nil {
		delay = *opts.Delay
	}
	err := delay.Validate()
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		jar:        jar,
		sleep:      opts.Sleep,
		userAgents: opts.UserAgents,
		rand:       opts.Rand,
		delay:      delay,
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if len(d.userAgents) == 0 {
		d.userAgents = DefaultUserAgents
	}
	if d.rand == nil {
		d.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", d.pickUserAgent())

	// the span is started first so that a cancelled pause still ends it
	telemetry.InstrumentResty(client, "spotifier.spot.http")
	restyutil.InstrumentClient(client, opts.Diagnostics)
	client.OnBeforeRequest(d.pace)
	client.OnBeforeRequest(d.rotateUserAgent)

	d.http = client
	return d, nil
}

func (d *Dispatcher) randomMs(min, max uint64) uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	if max <= min {
		return min
	}
	return min + uint64(d.rand.Int63n(int64(max-min+1)))
}

func (d *Dispatcher) pickUserAgent() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.userAgents[d.rand.Intn(len(d.userAgents))]
}

func (d *Dispatcher) pace(_ *resty.Client, req *resty.Request) error {
	cfg := d.DelayConfig()
	if !cfg.Enabled {
		return nil
	}
	ms := d.randomMs(cfg.MinDelayMs, cfg.MaxDelayMs)
	delayHistogram.Record(req.Context(), int64(ms))
	return d.sleep(req.Context(), time.Duration(ms)*time.Millisecond)
}

func (d *Dispatcher) rotateUserAgent(_ *resty.Client, req *resty.Request) error {
	req.SetHeader("User-Agent", d.pickUserAgent())
	requestCounter.Add(req.Context(), 1, metric.WithAttributes(
		attribute.String("method", req.Method),
	))
	return nil
}

// Jitter pauses for 2-5 seconds when pacing is enabled, it is used after
// submitting credentials.
func (d *Dispatcher) Jitter(ctx context.Context) error {
	if !d.DelayConfig().Enabled {
		return nil
	}
	ms := d.randomMs(loginJitterMinMs, loginJitterMaxMs)
	return d.sleep(ctx, time.Duration(ms)*time.Millisecond)
}

func (d *Dispatcher) SetDelayConfig(cfg model.DelayConfig) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.delay = cfg
	return nil
}

func (d *Dispatcher) DelayConfig() model.DelayConfig {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.delay
}

func (d *Dispatcher) Jar() *cookiejar.Jar {
	return d.jar
}

func (d *Dispatcher) Http() *resty.Client {
	return d.http
}

func transportError(method, target string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, target, err)
}

func (d *Dispatcher) Get(ctx context.Context, target string) (*resty.Response, error) {
	res, err := d.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, transportError("GET", target, err)
	}
	return res, nil
}

func (d *Dispatcher) PostForm(ctx context.Context, target string, form map[string]string) (*resty.Response, error) {
	res, err := d.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(target)
	if err != nil {
		return nil, transportError("POST", target, err)
	}
	return res, nil
}

// PostMultipart posts fields as multipart/form-data, file is optional.
func (d *Dispatcher) PostMultipart(ctx context.Context, target string, fields map[string]string, file *File) (*resty.Response, error) {
	req := d.http.R().
		SetContext(ctx).
		SetMultipartFormData(fields)
	if file != nil {
		req.SetFileReader(file.Field, file.Name, bytes.NewReader(file.Data))
	}
	res, err := req.Post(target)
	if err != nil {
		return nil, transportError("POST", target, err)
	}
	return res, nil
}

// FinalUrl returns the url that served res after redirects were followed.
func FinalUrl(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	parsed, err := url.Parse(res.Request.URL)
	if err != nil {
		return &url.URL{}
	}
	return parsed
}
