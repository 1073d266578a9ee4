package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog          zerolog.Logger
	diagFile         *os.File
	conversationFile *os.File
	logMu            sync.Mutex
	logReady         bool
	pid              int
	dir              string
	sessionID        string
)

const (
	diagFileName         = "diagnostics_log.txt"
	conversationFileName = "conversation_log.txt"
)

type TranslationMetrics struct {
	Provider   string
	From, To   string
	Chars      int
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	NetworkMs  float64
	TotalMs    float64
	ConnReused bool
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}
	// Priority 2: VAANI_LOG_PATH environment variable
	if envPath := os.Getenv("VAANI_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}
	// Priority 3: default OS-specific location
	return defaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens both log files. Every other function in this package is a
// no-op until Init succeeds.
func Init(session string) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()
	sessionID = session

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	conversationFile, err = os.OpenFile(filepath.Join(dir, conversationFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	ctx := zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid)
	if session != "" {
		ctx = ctx.Str("session", session)
	}
	diagLog = ctx.Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if conversationFile != nil {
		conversationFile.Close()
		conversationFile = nil
	}
	logReady = false
}

func ready() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return logReady
}

func Info(msg string) {
	if ready() {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if ready() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if ready() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if ready() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if ready() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(translator, transcriber, speaker, lang1, lang2 string) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("translator", translator).
		Str("transcriber", transcriber).
		Str("speaker", speaker).
		Str("lang1", lang1).
		Str("lang2", lang2).
		Msg("session_start")
}

func SessionEnd(entries int) {
	if !ready() {
		return
	}
	diagLog.Info().Int("entries", entries).Msg("session_end")
}

func Translation(m TranslationMetrics) {
	if !ready() {
		return
	}
	conn := "new"
	if m.ConnReused {
		conn = "reused"
	}
	diagLog.Info().
		Str("provider", m.Provider).
		Str("from", m.From).
		Str("to", m.To).
		Int("chars", m.Chars).
		Str("conn", conn).
		Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("network_ms", m.NetworkMs).
		Float64("total_ms", m.TotalMs).
		Msg("translation")
}

func TranslationFailed(provider, from, to string, err error) {
	if !ready() {
		return
	}
	diagLog.Error().
		Str("provider", provider).
		Str("from", from).
		Str("to", to).
		Err(err).
		Msg("translation_failed")
}

func ListenStart(speaker, language string) {
	if !ready() {
		return
	}
	diagLog.Info().Str("speaker", speaker).Str("lang", language).Msg("listen_start")
}

func ListenStop(speaker string, err error) {
	if !ready() {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Warn().Err(err)
	}
	ev.Str("speaker", speaker).Msg("listen_stop")
}

func TranscriptCleared(entries int) {
	if !ready() {
		return
	}
	diagLog.Info().Int("entries", entries).Msg("transcript_cleared")
}

func TranscriptCopied(entries, chars int) {
	if !ready() {
		return
	}
	diagLog.Info().Int("entries", entries).Int("chars", chars).Msg("transcript_copied")
}

// ConversationEntry appends one transcript entry to the plain conversation
// log: "time\t[pid]\tspeaker\tfrom→to\ttext".
func ConversationEntry(speaker, from, to, text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s→%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, speaker, from, to, text)
	conversationFile.WriteString(line)
}
