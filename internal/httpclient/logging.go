package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clientctl/clientctl/internal/log"
)

const (
	redactedValue   = "[REDACTED]"
	maxLoggedBody   = 1000
	defaultTimeout  = 60 * time.Second
	logTypeRequest  = "http_request"
	logTypeResponse = "http_response"
)

// LoggingHTTPClient wraps an HTTP client to add debug and trace logging
type LoggingHTTPClient struct {
	wrapped *http.Client
	logger  *slog.Logger
}

// NewLoggingHTTPClient creates a new logging HTTP client
func NewLoggingHTTPClient(logger *slog.Logger) *LoggingHTTPClient {
	return NewLoggingHTTPClientWithClient(&http.Client{Timeout: defaultTimeout}, logger)
}

// NewLoggingHTTPClientWithClient wraps an existing HTTP client
func NewLoggingHTTPClientWithClient(client *http.Client, logger *slog.Logger) *LoggingHTTPClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggingHTTPClient{
		wrapped: client,
		logger:  logger,
	}
}

// Do implements apiutil.Doer with logging
func (c *LoggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return c.wrapped.Do(req)
	}

	start := time.Now()
	c.logRequest(req)

	resp, err := c.wrapped.Do(req)

	duration := time.Since(start)
	if err != nil {
		attrs := []slog.Attr{
			slog.String("log_type", logTypeResponse),
			slog.String("method", req.Method),
			slog.String("route", req.URL.Path),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request failed", attrs...)
		return nil, err
	}

	c.logResponse(req, resp, duration)

	return resp, nil
}

func (c *LoggingHTTPClient) logRequest(req *http.Request) {
	ctx := req.Context()
	attrs := []slog.Attr{
		slog.String("log_type", logTypeRequest),
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("route", req.URL.Path),
	}
	if query := redactQuery(req.URL.Query()); len(query) > 0 {
		attrs = append(attrs, slog.Any("query_params", query))
	}

	if c.logger.Enabled(ctx, log.LevelTrace) {
		attrs = append(attrs, slog.Any("headers", redactHeaders(req.Header)))
		if req.ContentLength > 0 {
			attrs = append(attrs, slog.Int64("content_length", req.ContentLength))
		}
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request", attrs...)
}

func (c *LoggingHTTPClient) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	ctx := req.Context()
	attrs := []slog.Attr{
		slog.String("log_type", logTypeResponse),
		slog.String("method", req.Method),
		slog.String("route", req.URL.Path),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", duration),
	}

	// Error bodies are only surfaced at trace level
	if resp.StatusCode >= 400 && c.logger.Enabled(ctx, log.LevelTrace) {
		body, err := peekResponseBody(resp)
		if err == nil && len(body) > 0 {
			if len(body) > maxLoggedBody {
				body = fmt.Sprintf("%s... [truncated, total %d bytes]", body[:maxLoggedBody], len(body))
			}
			attrs = append(attrs, slog.String("error_body", body))
		}
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP response", attrs...)
}

func redactHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for k, v := range header {
		if isSensitive(k) || strings.EqualFold(k, "set-cookie") {
			headers[k] = redactedValue
			continue
		}
		headers[k] = strings.Join(v, ", ")
	}
	return headers
}

func redactQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if isSensitive(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	return key == "authorization" ||
		strings.Contains(key, "token") ||
		strings.Contains(key, "api-key") ||
		strings.Contains(key, "api_key")
}

// peekResponseBody reads the response body without consuming it
func peekResponseBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	return string(bodyBytes), nil
}
