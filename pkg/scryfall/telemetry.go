package scryfall

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentResty opens a span per HTTP request. Requests made with
// SetDoNotParseResponse skip the after-response hook, so callers of those end
// the span themselves with finishRequestSpan.
func instrumentResty(client *resty.Client) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), "http "+req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		finishRequestSpan(res)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if req.RawRequest != nil {
			span.SetAttributes(attribute.String("url.full", req.RawRequest.URL.String()))
		}
	})
}

func finishRequestSpan(res *resty.Response) {
	if res == nil || res.Request == nil {
		return
	}
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(
		attribute.Int("http.response.status_code", res.StatusCode()),
		attribute.String("http.request.method", res.Request.Method),
	)
	if res.Request.RawRequest != nil {
		span.SetAttributes(attribute.String("url.full", res.Request.RawRequest.URL.String()))
	}
	if res.IsError() {
		span.SetStatus(codes.Error, fmt.Sprintf("http %d", res.StatusCode()))
	}
}
