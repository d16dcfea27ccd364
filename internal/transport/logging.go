package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxLoggedValue = 100

func (c *Client) logRequest(method, target string, headers http.Header, body []byte) {
	if !c.verbose {
		return
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Any("headers", redactHeaders(headers)),
		zap.ByteString("body", truncateLargeValues(body)),
	)
}

func (c *Client) logResponse(endpoint Endpoint, status int, elapsed time.Duration, headers http.Header, body []byte) {
	if !c.verbose {
		return
	}
	fields := []zap.Field{
		zap.String("endpoint", string(endpoint)),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
		zap.String("content_type", headers.Get("Content-Type")),
	}
	if strings.HasPrefix(headers.Get("Content-Type"), "application/json") {
		fields = append(fields, zap.ByteString("body", truncateLargeValues(body)))
	} else {
		fields = append(fields, zap.Int("body_bytes", len(body)))
	}
	c.logger.Debug("response", fields...)
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		value := strings.Join(values, ", ")
		if strings.EqualFold(key, "authorization") {
			value = "[REDACTED]"
		}
		out[key] = value
	}
	return out
}

// truncateLargeValues shortens inline image payloads so verbose logs stay
// readable. Non-JSON bodies are returned unchanged.
func truncateLargeValues(body []byte) []byte {
	if len(body) == 0 {
		return body
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	truncateFields(data)

	result, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return result
}

func truncateFields(data map[string]any) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if len(v) > maxLoggedValue && (strings.HasPrefix(v, "data:") || key == "image_base64" || key == "b64_json") {
				data[key] = v[:maxLoggedValue] + "... [truncated]"
			}
		case map[string]any:
			truncateFields(v)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					truncateFields(m)
				}
			}
		}
	}
}
