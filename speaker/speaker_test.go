package speaker

import (
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestNewFallsBackToNop(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, ok := New(true).(Nop); !ok {
		t.Error("no key should give Nop")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, ok := New(false).(Nop); !ok {
		t.Error("disabled should give Nop")
	}
	if New(true).Name() != "openai" {
		t.Error("expected openai speaker")
	}
}

func TestFakeIgnoresEmptyText(t *testing.T) {
	f := &Fake{}
	f.Speak("", "hi")
	f.Speak("नमस्ते", "hi")
	said := f.Said()
	if len(said) != 1 || said[0] != (Utterance{Text: "नमस्ते", Language: "hi"}) {
		t.Errorf("said = %+v", said)
	}
}

func TestOpenAISpeakPlaysPCM(t *testing.T) {
	var mu sync.Mutex
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path = %q", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(b)
		mu.Unlock()
		pcm := make([]byte, 6)
		binary.LittleEndian.PutUint16(pcm[0:], uint16(1))
		binary.LittleEndian.PutUint16(pcm[2:], uint16(0xFFFF)) // -1
		binary.LittleEndian.PutUint16(pcm[4:], uint16(300))
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(pcm)
	}))
	defer srv.Close()

	var played []int16
	o := NewOpenAI("sk-test", "", srv.URL+"/v1", func(s []int16) error {
		played = s
		return nil
	})
	o.Speak("hello", "en")
	o.Wait()

	want := []int16{1, -1, 300}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, played[i], want[i])
		}
	}
	mu.Lock()
	defer mu.Unlock()
	for _, frag := range []string{`"input":"hello"`, `"response_format":"pcm"`, `"voice":"alloy"`} {
		if !strings.Contains(body, frag) {
			t.Errorf("request %s missing %s", body, frag)
		}
	}
}

func TestOpenAISpeakEmptyMakesNoRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "", srv.URL+"/v1", func([]int16) error { return nil })
	o.Speak("", "en")
	o.Wait()
}

func TestOpenAISpeakErrorDoesNotPlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"down"}}`))
	}))
	defer srv.Close()

	played := false
	o := NewOpenAI("sk-test", "", srv.URL+"/v1", func([]int16) error { played = true; return nil })
	o.Speak("hello", "en")
	o.Wait()
	if played {
		t.Error("played audio after a failed request")
	}
}

func TestPCMSamplesOddLength(t *testing.T) {
	if got := pcmSamples([]byte{1, 0, 9}); len(got) != 1 || got[0] != 1 {
		t.Errorf("pcmSamples = %v", got)
	}
}
