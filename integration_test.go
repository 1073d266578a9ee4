//go:build integration

package main_test

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("VAANI_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "VAANI_TEST_BIN not set; build vaani and point it at the binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func writeSilenceWAV(t *testing.T, sampleRate int, durationS float64) string {
	t.Helper()
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeGoogle answers like the gtx endpoint, translating through dict.
func fakeGoogle(t *testing.T, dict map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, ok := dict[q.Get("sl")+">"+q.Get("tl")+":"+q.Get("q")]
		if !ok {
			http.Error(w, "unknown phrase", http.StatusBadRequest)
			return
		}
		body, _ := json.Marshal([]any{[]any{[]any{out, q.Get("q"), nil, nil, 10}}, nil, q.Get("sl")})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runVaani(t *testing.T, env []string, stdin string, args ...string) (out, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)

	b, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("vaani exited with error: %v\noutput: %s", err, b)
	}
	return string(b), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestConversation(t *testing.T) {
	srv := fakeGoogle(t, map[string]string{
		"en>hi:Hello":   "नमस्ते",
		"hi>en:धन्यवाद": "Thank you",
	})
	out, logDir := runVaani(t, []string{"TRANSLATOR=google", "VAANI_TRANSLATE_URL=" + srv.URL},
		cmds("text 1 Hello", "translate 1", "text 2 धन्यवाद", "translate 2", "transcript", "quit"),
		"-test")

	for _, want := range []string{"Speaker1: नमस्ते", "Speaker2: Thank you", "Speaker1: नमस्ते\n\nSpeaker2: Thank you"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	conv := readLog(t, logDir, "conversation_log.txt")
	if !strings.Contains(conv, "नमस्ते") || !strings.Contains(conv, "Thank you") {
		t.Errorf("conversation log:\n%s", conv)
	}
	if diag := readLog(t, logDir, "diagnostics_log.txt"); !strings.Contains(diag, "session_start") {
		t.Errorf("diagnostics log missing session_start:\n%s", diag)
	}
}

func TestTranslationFailure(t *testing.T) {
	srv := fakeGoogle(t, nil)
	out, _ := runVaani(t, []string{"TRANSLATOR=google", "VAANI_TRANSLATE_URL=" + srv.URL},
		cmds("text 1 Hello", "translate 1", "show", "quit"), "-test")
	if !strings.Contains(out, "error: translation failed") {
		t.Errorf("output:\n%s", out)
	}
	// failed input stays for a retry
	if !strings.Contains(out, `Speaker1 [en]: "Hello"`) {
		t.Errorf("pending text lost:\n%s", out)
	}
}

func TestListenWithoutKey(t *testing.T) {
	wav := writeSilenceWAV(t, 16000, 1.0)
	out, _ := runVaani(t, []string{"DEEPGRAM_API_KEY="}, cmds("listen 1", "quit"), "-test", "-wav", wav)
	if !strings.Contains(out, "speech recognition not supported") {
		t.Errorf("output:\n%s", out)
	}
}

func TestListenSilenceEndsTurn(t *testing.T) {
	if os.Getenv("DEEPGRAM_API_KEY") == "" {
		t.Skip("DEEPGRAM_API_KEY not set")
	}
	wav := writeSilenceWAV(t, 16000, 1.0)
	out, logDir := runVaani(t, nil, cmds("listen 1", "wait", "show", "quit"), "-test", "-wav", wav)
	if !strings.Contains(out, "Speaker1 listening") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "(listening)") {
		t.Errorf("still listening after wait:\n%s", out)
	}
	if diag := readLog(t, logDir, "diagnostics_log.txt"); !strings.Contains(diag, "no_speech") {
		t.Errorf("expected no_speech auto stop in diagnostics:\n%s", diag)
	}
}
