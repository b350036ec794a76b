package restyutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives one dump per request, keyed by a message id
// that is unique for the client.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type messageIdKey struct{}

type dumper struct {
	output  InstrumentOutput
	counter atomic.Uint64
}

// InstrumentClient dumps every request/response pair to output while debug
// logging is enabled. ids look like "0003-POST" so a directory listing
// reads in request order. a nil output is a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}
	d := &dumper{output: output}
	client.OnBeforeRequest(d.onBeforeRequest)
	client.OnAfterResponse(d.onAfterResponse)
	client.OnError(d.onError)
}

func (d *dumper) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	messageId := fmt.Sprintf("%04d-%s", d.counter.Add(1), req.Method)
	slog.DebugContext(ctx, "start request", "url", req.URL, "message_id", messageId)
	req.SetContext(context.WithValue(ctx, messageIdKey{}, messageId))
	return nil
}

func (d *dumper) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	messageId, ok := ctx.Value(messageIdKey{}).(string)
	if !ok {
		return nil
	}
	d.output.Write(messageId, formatHttpMessage(res))
	slog.DebugContext(
		ctx, "request finished",
		"status", res.StatusCode(),
		"final_url", finalUrl(res),
		"message_id", messageId,
	)
	return nil
}

func (d *dumper) onError(req *resty.Request, err error) {
	messageId, _ := req.Context().Value(messageIdKey{}).(string)
	slog.WarnContext(
		req.Context(), "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
		"message_id", messageId,
	)
}
