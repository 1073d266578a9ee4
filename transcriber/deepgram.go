package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
	"nhooyr.io/websocket"

	"vaani/audio"
	"vaani/lang"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

type Deepgram struct {
	apiKey string
	url    string
	model  string
	actx   audio.Context
	device *audio.DeviceInfo
	limits TurnLimits
}

func NewDeepgram(apiKey string, actx audio.Context, device *audio.DeviceInfo) *Deepgram {
	return &Deepgram{
		apiKey: apiKey,
		url:    deepgramListenURL,
		model:  "nova-2",
		actx:   actx,
		device: device,
		limits: DefaultTurnLimits(),
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

// Start opens the microphone and a streaming connection. The connection is
// dialed in the background so the first audio is buffered rather than lost;
// dial failures surface through Stream.Err.
func (d *Deepgram) Start(ctx context.Context, language string) (Stream, error) {
	capture, err := d.actx.NewCapture(d.device, audio.DefaultCaptureConfig())
	if err != nil {
		return nil, &Error{Code: "audio-capture", Message: err.Error()}
	}

	endpoint, err := d.endpoint(language)
	if err != nil {
		capture.Close()
		return nil, err
	}

	s := newStream(capture, func() (rawStream, error) {
		return d.dial(ctx, endpoint)
	})
	s.endOnSilence(newSpeechDetector(), newTurnMonitor(d.limits, tickInterval), tickInterval)
	capture.SetCallback(func(data []byte, _ uint32) { s.Feed(data) })
	if err := capture.Start(); err != nil {
		s.Stop() // releases capture
		return nil, &Error{Code: "audio-capture", Message: err.Error()}
	}
	return s, nil
}

func (d *Deepgram) endpoint(language string) (string, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", d.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	if language != "" {
		q.Set("language", lang.Tag(language).String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Deepgram) dial(ctx context.Context, endpoint string) (rawStream, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	streamCtx, cancel := context.WithCancel(ctx)
	conn, resp, err := websocket.Dial(streamCtx, endpoint, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		cancel()
		if resp != nil {
			return nil, dialError(resp.StatusCode, err)
		}
		return nil, &Error{Code: "network", Message: err.Error()}
	}
	return &deepgramStream{conn: conn, ctx: streamCtx, cancel: cancel}, nil
}

func dialError(status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Code: "not-allowed", Message: fmt.Sprintf("deepgram rejected the API key (%d)", status)}
	case http.StatusBadRequest:
		return &Error{Code: "language-not-supported", Message: err.Error()}
	}
	return &Error{Code: "network", Message: fmt.Sprintf("deepgram dial %d: %v", status, err)}
}

type deepgramResponse struct {
	Type         string `json:"type"`
	IsFinal      bool   `json:"is_final"`
	SpeechFinal  bool   `json:"speech_final"`
	FromFinalize bool   `json:"from_finalize"`
	Channel      struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Description string `json:"description"`
}

func parseDeepgram(data []byte) (streamUpdate, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return streamUpdate{}, fmt.Errorf("deepgram message parse error: %w", err)
	}
	if resp.Type == "Error" {
		return streamUpdate{}, &Error{Code: "provider", Message: resp.Description}
	}
	u := streamUpdate{
		IsFinal:      resp.IsFinal || resp.SpeechFinal,
		FromFinalize: resp.FromFinalize,
	}
	if len(resp.Channel.Alternatives) > 0 {
		u.Transcript = resp.Channel.Alternatives[0].Transcript
	}
	return u, nil
}

type deepgramStream struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *deepgramStream) Send(pcm []byte) error {
	return s.conn.Write(s.ctx, websocket.MessageBinary, pcm)
}

func (s *deepgramStream) CloseSend() error {
	return s.conn.Write(s.ctx, websocket.MessageText, []byte(`{"type":"Finalize"}`))
}

func (s *deepgramStream) Recv() (streamUpdate, error) {
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return streamUpdate{}, io.EOF
			}
			return streamUpdate{}, &Error{Code: "network", Message: err.Error()}
		}
		u, err := parseDeepgram(data)
		if err != nil {
			return streamUpdate{}, err
		}
		// Metadata and UtteranceEnd messages carry no text.
		if u.Transcript == "" && !u.IsFinal && !u.FromFinalize {
			continue
		}
		return u, nil
	}
}

func (s *deepgramStream) Close() error {
	s.cancel()
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
