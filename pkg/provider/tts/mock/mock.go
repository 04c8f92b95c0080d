// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider in unit tests to capture synthesis requests without a live
// TTS engine. All fields are safe to set before calling any method; mutating
// them during a concurrent call is the caller's responsibility.
package mock

import (
	"context"
	"sync"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Text is the utterance passed to Synthesize.
	Text string
	// Voice is the VoiceProfile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider.
// A zero value returns nil audio and nil errors. Set Err to inject errors.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize. May be nil.
	Audio []byte

	// Err, if non-nil, is returned as the error from Synthesize.
	Err error

	// SynthesizeCalls records every invocation of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Audio, Err.
func (p *Provider) Synthesize(_ context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Audio, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
