package translator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTracedClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	c := newTracedClient(5 * time.Second)
	for i, wantReused := range []bool{false, true} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, err := c.Do(req)
		if err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
		if resp.StatusCode != http.StatusTeapot || string(resp.Body) != "short and stout" {
			t.Errorf("resp = %d %q", resp.StatusCode, resp.Body)
		}
		m := resp.Metrics
		if m.Total <= 0 || m.Total < m.TTFB {
			t.Errorf("Total %v, TTFB %v", m.Total, m.TTFB)
		}
		if m.ConnReused != wantReused {
			t.Errorf("request %d: ConnReused = %v", i, m.ConnReused)
		}
	}
}

func TestTracedClientLimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", maxBody+100)))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := newTracedClient(5 * time.Second).Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Body) != maxBody {
		t.Errorf("body length = %d, want %d", len(resp.Body), maxBody)
	}
}

func TestSpan(t *testing.T) {
	now := time.Now()
	if got := span(time.Time{}, now); got != 0 {
		t.Errorf("span from zero = %v", got)
	}
	if got := span(now, now.Add(3*time.Millisecond)); got != 3*time.Millisecond {
		t.Errorf("span = %v", got)
	}
}

func TestWarmUnreachable(t *testing.T) {
	if d := newTracedClient(time.Second).Warm("http://127.0.0.1:1"); d != 0 {
		t.Errorf("Warm = %v, want 0", d)
	}
}
