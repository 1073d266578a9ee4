package translator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newOpenAIServer(t *testing.T, status int, body string, gotBody *string) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if gotBody != nil {
			b, _ := io.ReadAll(r.Body)
			*gotBody = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewOpenAI("sk-test", "", srv.URL+"/v1")
}

func TestOpenAITranslate(t *testing.T) {
	var sent string
	o := newOpenAIServer(t, 200, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" வணக்கம் \n"},"finish_reason":"stop"}]}`, &sent)

	res, err := o.Translate(context.Background(), "Hello", "en", "ta")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "வணக்கம்" {
		t.Errorf("Text = %q", res.Text)
	}
	if !strings.Contains(sent, "Tamil (ta)") || !strings.Contains(sent, "English (en)") {
		t.Errorf("prompt does not name both languages: %s", sent)
	}
	if !strings.Contains(sent, `"model":"gpt-4o-mini"`) {
		t.Errorf("default model not used: %s", sent)
	}
}

func TestOpenAINoChoices(t *testing.T) {
	o := newOpenAIServer(t, 200, `{"choices":[]}`, nil)
	if _, err := o.Translate(context.Background(), "Hello", "en", "hi"); !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("err = %v, want ErrUnexpectedResponse", err)
	}
}

func TestOpenAIAPIError(t *testing.T) {
	o := newOpenAIServer(t, 401, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, nil)
	_, err := o.Translate(context.Background(), "Hello", "en", "hi")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != 401 || se.Body != "bad key" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestLanguageName(t *testing.T) {
	for _, tt := range []struct{ code, want string }{
		{"en", "English (en)"},
		{"ml", "Malayalam (ml)"},
		{"xx", "xx (xx)"},
	} {
		if got := languageName(tt.code); got != tt.want {
			t.Errorf("languageName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
