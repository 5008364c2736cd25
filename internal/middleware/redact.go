package middleware

import (
	"net/http"
	"strings"
)

// RedactedValue replaces sensitive values before anything reaches a log sink.
const RedactedValue = "[REDACTED]"

// Header names are matched lower-cased, the way the transport hands them over.
var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"x-api-key":     {},
	"x-admin-key":   {},
}

var sensitiveBodyFields = map[string]struct{}{
	"password":              {},
	"password_confirmation": {},
	"confirm_password":      {},
	"current_password":      {},
	"new_password":          {},
	"token":                 {},
	"access_token":          {},
	"refresh_token":         {},
	"api_key":               {},
	"api_secret":            {},
	"secret":                {},
	"card_number":           {},
	"cvv":                   {},
	"payment_token":         {},
	"bank_account":          {},
}

// RedactHeaders returns a flattened, masked copy of h. The input is never
// mutated. A nil input yields nil.
func RedactHeaders(h http.Header) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if isSensitiveHeader(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = values[0]
	}
	return out
}

// RedactBody returns a masked copy of body, recursing into nested objects
// and arrays. The input map is never mutated. A nil input yields nil.
func RedactBody(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}
	out := make(map[string]interface{}, len(body))
	for key, val := range body {
		if isSensitiveField(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = redactNested(val)
	}
	return out
}

func redactNested(v interface{}) interface{} {
	switch raw := v.(type) {
	case map[string]interface{}:
		return RedactBody(raw)
	case []interface{}:
		out := make([]interface{}, len(raw))
		for i, item := range raw {
			out[i] = redactNested(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveHeader(key string) bool {
	_, ok := sensitiveHeaders[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

func isSensitiveField(key string) bool {
	_, ok := sensitiveBodyFields[strings.ToLower(strings.TrimSpace(key))]
	return ok
}
