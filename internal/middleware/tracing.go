package middleware

import (
	"strconv"

	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const errorCodeLocal = "errorCode"

// SetErrorCode records the application error code a handler answered with,
// for the tracing and logging middleware.
func SetErrorCode(c *fiber.Ctx, code string) {
	c.Locals(errorCodeLocal, code)
}

func errorCodeFrom(c *fiber.Ctx) string {
	code, _ := c.Locals(errorCodeLocal).(string)
	return code
}

// TracingMiddleware opens a server span per request. Once routing is done
// the span is renamed to the route pattern and tagged with the acting
// principal and the ids addressed in the path, e.g. route.param.commentId.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Locals("spanID", span.SpanContext().SpanID().String())
		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
			for _, param := range route.Params {
				if v := c.Params(param); v != "" {
					span.SetAttributes(attribute.String("route.param."+param, v))
				}
			}
		}
		if p, ok := PrincipalFrom(c); ok {
			span.SetAttributes(
				attribute.String("enduser.id", strconv.FormatUint(uint64(p.ID), 10)),
				attribute.String("enduser.role", string(p.Role)),
			)
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if code := errorCodeFrom(c); code != "" {
			span.SetAttributes(attribute.String("app.error_code", code))
		}
		if err != nil {
			span.RecordError(err)
		}
		if err != nil || status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, errorCodeFrom(c))
		}
		return err
	}
}
