// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using whisper.cpp Go bindings
// (CGO), eliminating HTTP overhead entirely. The model is loaded once at
// startup and shared across all transcription calls; each call creates its
// own whisper context, so concurrent use is safe.
type NativeProvider struct {
	model    whisperlib.Model
	language string

	sampleRate int

	mu     sync.Mutex
	closed bool
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// WithNativeSampleRate sets the sample rate (Hz) assumed for raw PCM input
// that arrives without a WAV header. Defaults to 16000.
func WithNativeSampleRate(rate int) NativeOption {
	return func(p *NativeProvider) { p.sampleRate = rate }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The model is loaded once and shared across all
// concurrent calls. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:      model,
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed. Calling Close more than once is safe.
func (p *NativeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.model == nil {
		return nil
	}
	p.closed = true
	return p.model.Close()
}

// Transcribe implements stt.Provider. audio may be raw 16-bit little-endian
// PCM or a complete WAV file. Near-silent utterances short-circuit to an
// empty transcript without running inference.
func (p *NativeProvider) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", errors.New("whisper: provider is closed")
	}
	p.mu.Unlock()

	if len(audio) == 0 {
		return "", nil
	}

	pcm := audio
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}
	if isWAV(audio) {
		var err error
		var ch int
		pcm, _, ch, err = decodeWAV(audio)
		if err != nil {
			return "", fmt.Errorf("whisper: decode wav: %w", err)
		}
		if ch > 0 {
			channels = ch
		}
	}

	if computeRMS(pcm) < defaultRMSThreshold {
		return "", nil
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	return p.infer(pcm, channels, lang)
}

// infer converts the PCM audio to float32 mono, runs whisper.cpp inference
// using a fresh context, and returns the concatenated text.
func (p *NativeProvider) infer(pcm []byte, channels int, language string) (string, error) {
	samples := pcmToFloat32Mono(pcm, channels)

	// Create a new whisper context for this inference. Each context is NOT
	// thread-safe, but the model can be shared across goroutines.
	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	// Collect segments.
	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}
