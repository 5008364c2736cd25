package middleware

import (
	"net/http"
	"reflect"
	"testing"
)

func TestRedactHeadersMasksSensitive(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret-token")
	h.Set("Cookie", "session=abc")
	h.Set("X-Api-Key", "key-123")
	h.Set("Content-Type", "application/json")

	out := RedactHeaders(h)

	if out["Authorization"] != RedactedValue {
		t.Fatalf("authorization not redacted: %q", out["Authorization"])
	}
	if out["Cookie"] != RedactedValue {
		t.Fatalf("cookie not redacted: %q", out["Cookie"])
	}
	if out["X-Api-Key"] != RedactedValue {
		t.Fatalf("api key not redacted: %q", out["X-Api-Key"])
	}
	if out["Content-Type"] != "application/json" {
		t.Fatalf("non-sensitive header altered: %q", out["Content-Type"])
	}
}

func TestRedactHeadersCaseVariants(t *testing.T) {
	// Keys straight off the wire are not always canonical.
	h := http.Header{
		"AUTHORIZATION": {"Bearer x"},
		"x-api-key":     {"k"},
	}
	out := RedactHeaders(h)
	if out["AUTHORIZATION"] != RedactedValue || out["x-api-key"] != RedactedValue {
		t.Fatalf("case-variant keys not redacted: %#v", out)
	}
}

func TestRedactHeadersDoesNotMutateInput(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	snapshot := h.Clone()

	_ = RedactHeaders(h)

	if !reflect.DeepEqual(h, snapshot) {
		t.Fatalf("input headers mutated: %#v", h)
	}
}

func TestRedactHeadersNilInput(t *testing.T) {
	if out := RedactHeaders(nil); out != nil {
		t.Fatalf("expected nil for nil input, got %#v", out)
	}
}

func TestRedactBodyMasksNestedFields(t *testing.T) {
	body := map[string]interface{}{
		"email":    "user@example.com",
		"password": "hunter2",
		"payment": map[string]interface{}{
			"card_number": "4111111111111111",
			"cvv":         "123",
			"amount":      42.5,
		},
		"attempts": []interface{}{
			map[string]interface{}{"token": "t1", "ok": false},
		},
	}

	out := RedactBody(body)

	if out["password"] != RedactedValue {
		t.Fatalf("password not redacted")
	}
	if out["email"] != "user@example.com" {
		t.Fatalf("non-sensitive field altered")
	}
	payment := out["payment"].(map[string]interface{})
	if payment["card_number"] != RedactedValue || payment["cvv"] != RedactedValue {
		t.Fatalf("nested payment fields not redacted: %#v", payment)
	}
	if payment["amount"] != 42.5 {
		t.Fatalf("nested non-sensitive field altered")
	}
	attempt := out["attempts"].([]interface{})[0].(map[string]interface{})
	if attempt["token"] != RedactedValue {
		t.Fatalf("field inside array not redacted")
	}
}

func TestRedactBodyDoesNotMutateInput(t *testing.T) {
	inner := map[string]interface{}{"password": "pw"}
	body := map[string]interface{}{"password": "pw", "nested": inner}

	_ = RedactBody(body)

	if body["password"] != "pw" {
		t.Fatalf("top-level input mutated")
	}
	if inner["password"] != "pw" {
		t.Fatalf("nested input mutated")
	}
}

func TestRedactBodyPassThroughWhenClean(t *testing.T) {
	body := map[string]interface{}{"title": "fix sink", "budget": 100}
	out := RedactBody(body)
	if !reflect.DeepEqual(out, body) {
		t.Fatalf("clean body altered: %#v", out)
	}
}

func TestRedactBodyNilInput(t *testing.T) {
	if out := RedactBody(nil); out != nil {
		t.Fatalf("expected nil for nil input, got %#v", out)
	}
}
