package speaker

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vaani/beep"
	"vaani/log"
)

const speakTimeout = 60 * time.Second

// OpenAI synthesizes with the speech endpoint in raw PCM (24 kHz mono s16le)
// so the audio can go straight to the output device.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
	play   func([]int16) error

	// one utterance at a time; later requests queue behind the current one
	playMu sync.Mutex
	wg     sync.WaitGroup
}

// NewOpenAI builds a speaker. Empty voice selects alloy, empty baseURL the
// public API, nil play the default output device.
func NewOpenAI(apiKey, voice, baseURL string, play func([]int16) error) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	if play == nil {
		play = beep.PlayPCM
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		voice:  openai.SpeechVoice(voice),
		play:   play,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Speak(text, language string) {
	if text == "" {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.speak(text); err != nil {
			log.Errorf("speak (%s): %v", language, err)
		}
	}()
}

// Wait blocks until every pending utterance has finished.
func (o *OpenAI) Wait() { o.wg.Wait() }

func (o *OpenAI) speak(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("openai speech read: %w", err)
	}

	o.playMu.Lock()
	defer o.playMu.Unlock()
	return o.play(pcmSamples(data))
}

func pcmSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
