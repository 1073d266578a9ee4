package translator

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// maxBody caps how much of a provider response is read.
const maxBody = 1 << 20

// tracedClient is an HTTP client that times each phase of a request so a
// slow translation can be attributed to DNS, TLS or the provider itself.
type tracedClient struct {
	http *http.Client
}

func newTracedClient(timeout time.Duration) *tracedClient {
	return &tracedClient{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type tracedResponse struct {
	Body       []byte
	StatusCode int
	Metrics    *NetworkMetrics
}

// timeline collects the instants httptrace reports for one request.
type timeline struct {
	getConn, gotConn    time.Time
	dnsStart, dnsDone   time.Time
	dialStart, dialDone time.Time
	tlsStart, tlsDone   time.Time
	wroteHeaders, wrote time.Time
	firstByte, readDone time.Time
	reused              bool
	protocol            string
}

func (tl *timeline) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) { tl.getConn = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			tl.gotConn = time.Now()
			tl.reused = info.Reused
		},
		DNSStart:          func(httptrace.DNSStartInfo) { tl.dnsStart = time.Now() },
		DNSDone:           func(httptrace.DNSDoneInfo) { tl.dnsDone = time.Now() },
		ConnectStart:      func(_, _ string) { tl.dialStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { tl.dialDone = time.Now() },
		TLSHandshakeStart: func() { tl.tlsStart = time.Now() },
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			tl.tlsDone = time.Now()
			tl.protocol = cs.NegotiatedProtocol
		},
		WroteHeaders:         func() { tl.wroteHeaders = time.Now() },
		WroteRequest:         func(httptrace.WroteRequestInfo) { tl.wrote = time.Now() },
		GotFirstResponseByte: func() { tl.firstByte = time.Now() },
	}
}

// span is b-a, or zero when either end was never reached.
func span(a, b time.Time) time.Duration {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return b.Sub(a)
}

func (tl *timeline) metrics(start time.Time) *NetworkMetrics {
	return &NetworkMetrics{
		ConnWait:    span(tl.getConn, tl.gotConn),
		DNS:         span(tl.dnsStart, tl.dnsDone),
		TCP:         span(tl.dialStart, tl.dialDone),
		TLS:         span(tl.tlsStart, tl.tlsDone),
		ReqHeaders:  span(tl.gotConn, tl.wroteHeaders),
		ReqBody:     span(tl.wroteHeaders, tl.wrote),
		TTFB:        span(tl.wrote, tl.firstByte),
		Download:    span(tl.firstByte, tl.readDone),
		Total:       span(start, tl.readDone),
		ConnReused:  tl.reused,
		TLSProtocol: tl.protocol,
	}
}

// Do sends req and reads the whole body, which is always closed.
func (c *tracedClient) Do(req *http.Request) (*tracedResponse, error) {
	var tl timeline
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), tl.trace()))
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	tl.readDone = time.Now()

	return &tracedResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Metrics:    tl.metrics(start),
	}, nil
}

// Warm opens a connection to url so the first translation skips the TLS
// handshake. Returns the handshake duration, 0 on failure.
func (c *tracedClient) Warm(url string) time.Duration {
	var tl timeline
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), tl.trace()))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return span(tl.tlsStart, tl.tlsDone)
}
