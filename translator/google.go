package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"vaani/log"
)

const googleBaseURL = "https://translate.googleapis.com"

// Google talks to the keyless "gtx" endpoint of Google Translate.
type Google struct {
	client  *tracedClient
	baseURL string
}

// NewGoogle returns a client for baseURL, or the public endpoint when baseURL
// is empty.
func NewGoogle(baseURL string) *Google {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &Google{
		client:  newTracedClient(15 * time.Second),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (g *Google) Name() string { return "google" }

// Warm pre-opens the connection used by the first translation.
func (g *Google) Warm() {
	if d := g.client.Warm(g.baseURL); d > 0 {
		log.Info("translator_warm: tls " + d.Round(time.Millisecond).String())
	}
}

func (g *Google) Translate(ctx context.Context, text, from, to string) (*Result, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", from)
	q.Set("tl", to)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: "google", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	translated, err := parseGoogle(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Result{Text: translated, Metrics: resp.Metrics}, nil
}

// parseGoogle extracts data[0][0][0]: the translation of the first sentence.
func parseGoogle(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || len(top) == 0 {
		return "", fmt.Errorf("google response parse error: %w", ErrUnexpectedResponse)
	}
	var sentences []json.RawMessage
	if err := json.Unmarshal(top[0], &sentences); err != nil || len(sentences) == 0 {
		return "", fmt.Errorf("google response has no sentences: %w", ErrUnexpectedResponse)
	}
	var segment []json.RawMessage
	if err := json.Unmarshal(sentences[0], &segment); err != nil || len(segment) == 0 {
		return "", fmt.Errorf("google response has no segment: %w", ErrUnexpectedResponse)
	}
	var text string
	if err := json.Unmarshal(segment[0], &text); err != nil || string(segment[0]) == "null" {
		return "", fmt.Errorf("google translation is not a string: %w", ErrUnexpectedResponse)
	}
	return text, nil
}
