package translator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrEmptyText          = errors.New("text is empty")
	ErrUnexpectedResponse = errors.New("unexpected response shape")
)

const maxErrorBody = 200 // bytes of response body kept in StatusError messages

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, body)
}

type NetworkMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqHeaders time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration

	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

type Result struct {
	Text    string
	Metrics *NetworkMetrics // nil when the provider client does not trace
}

// Translator turns text in one language into another. Implementations issue
// exactly one request per call and never retry.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (*Result, error)
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}

// New picks a provider from the environment. TRANSLATOR=openai selects the
// OpenAI chat provider (OPENAI_API_KEY required); anything else selects the
// keyless Google endpoint.
func New() (Translator, error) {
	switch strings.ToLower(os.Getenv("TRANSLATOR")) {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("TRANSLATOR=openai requires OPENAI_API_KEY")
		}
		return NewOpenAI(key, os.Getenv("OPENAI_TRANSLATE_MODEL"), ""), nil
	case "", "google":
		return NewGoogle(os.Getenv("VAANI_TRANSLATE_URL")), nil
	default:
		return nil, fmt.Errorf("unknown TRANSLATOR %q (want google or openai)", os.Getenv("TRANSLATOR"))
	}
}
