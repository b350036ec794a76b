package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInitSlog(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	InitSlog(false)
	require.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	InitSlog(true)
	require.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestInstrumentRestyPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := resty.New()
	InstrumentResty(client, "spotifier.test")
	res, err := client.R().Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())
}

func TestReadPerfStats(t *testing.T) {
	stats := ReadPerfStats(0)
	require.Greater(t, stats.Goroutines, int64(0))
	require.GreaterOrEqual(t, stats.LiveObjects, int64(0))
}

func TestHeaderAttributesRedactCookies(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "text/html")
	headers.Add("Set-Cookie", "TGC=secret")
	headers.Add("Set-Cookie", "JSESSIONID=secret")

	attrs := headerAttributes("response", headers)
	require.Len(t, attrs, 2)
	for _, attr := range attrs {
		switch attr.Key {
		case "response/header: Content-Type":
			require.Equal(t, "text/html", attr.Value.AsString())
		case "response/header: Set-Cookie":
			require.Equal(t, []string{"<redacted>", "<redacted>"}, attr.Value.AsStringSlice())
		default:
			t.Fatalf("unexpected attribute %s", attr.Key)
		}
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short"))

	long := strings.Repeat("a", maxBodyAttribute+10)
	truncated := truncate(long)
	require.True(t, strings.HasPrefix(truncated, strings.Repeat("a", maxBodyAttribute)+"..."))
	require.True(t, strings.HasSuffix(truncated, fmt.Sprintf("(%d bytes)", len(long))))
}

func TestRedirectCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			http.Redirect(w, r, "/b", http.StatusFound)
		case "/b":
			http.Redirect(w, r, "/c", http.StatusFound)
		default:
			w.Write([]byte("done"))
		}
	}))
	defer srv.Close()

	res, err := resty.New().R().Get(srv.URL + "/a")
	require.NoError(t, err)
	require.Equal(t, 2, redirectCount(res.RawResponse))
	require.Equal(t, 0, redirectCount(nil))
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestMetricInterval(t *testing.T) {
	require.Equal(t, defaultMetricInterval, Config{}.metricInterval())
	require.Equal(t, 250*time.Millisecond, Config{MetricIntervalMs: 250}.metricInterval())
	require.True(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}.Enabled())
	require.False(t, OtlpConnConfig{}.Enabled())
}
