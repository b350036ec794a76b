package telemetry

import (
	"fmt"
	"net/http"

	"spotifier-core/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// portal pages run to hundreds of kilobytes, only the head of a body is
// kept on the span.
const maxBodyAttribute = 8 << 10

// InstrumentResty wraps every request made by client in a span carrying its
// headers, bodies and redirect count. cookies and password fields are
// redacted.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), "http "+req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(endResponseSpan)
	client.OnError(endErrorSpan)
}

var redactedHeaders = map[string]bool{
	"Cookie":     true,
	"Set-Cookie": true,
}

func headerValue(header, value string) string {
	if redactedHeaders[http.CanonicalHeaderKey(header)] {
		return "<redacted>"
	}
	return value
}

func headerAttributes(prefix string, headers http.Header) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for header, values := range headers {
		key := fmt.Sprintf("%s/header: %s", prefix, header)
		if len(values) == 1 {
			attrs = append(attrs, attribute.String(key, headerValue(header, values[0])))
			continue
		}
		redacted := make([]string, len(values))
		for i, v := range values {
			redacted[i] = headerValue(header, v)
		}
		attrs = append(attrs, attribute.StringSlice(key, redacted))
	}
	return attrs
}

func truncate(body string) string {
	if len(body) <= maxBodyAttribute {
		return body
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:maxBodyAttribute], len(body))
}

func redirectCount(res *http.Response) int {
	if res == nil || res.Request == nil {
		return 0
	}
	count := 0
	for req := res.Request; req.Response != nil; req = req.Response.Request {
		count++
	}
	return count
}

func endResponseSpan(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// the raw request only exists once the request was sent
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
		span.SetAttributes(attribute.String("request/body", restyutil.FormatRequestBody(res.Request.RawRequest)))
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
		span.SetAttributes(attribute.Int("http.redirect_count", redirectCount(res.RawResponse)))
		if res.RawResponse.Request != nil {
			span.SetAttributes(attribute.String("http.final_url", res.RawResponse.Request.URL.String()))
		}
	}
	span.SetAttributes(headerAttributes("request", res.Request.Header)...)
	span.SetAttributes(headerAttributes("response", res.Header())...)
	span.SetAttributes(attribute.String("response/body", truncate(res.String())))

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func endErrorSpan(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.SetAttributes(headerAttributes("request", req.Header)...)
	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
		span.SetAttributes(attribute.String("request/body", restyutil.FormatRequestBody(req.RawRequest)))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
