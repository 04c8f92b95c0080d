// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcripts without a live
// speech engine. All fields are safe to set before calling any method;
// mutating them during a concurrent call is the caller's responsibility.
package mock

import (
	"context"
	"sync"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Audio is the audio payload passed to Transcribe.
	Audio []byte
	// Cfg is the TranscribeConfig passed to Transcribe.
	Cfg stt.TranscribeConfig
}

// Provider is a mock implementation of stt.Provider.
// A zero value returns empty transcripts and nil errors. Set Err to inject
// errors.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Transcribe when Transcripts is empty.
	Text string

	// Transcripts is a scripted queue of results. Each call pops the next
	// entry; when the queue is exhausted the last entry is repeated.
	// Ignored if empty.
	Transcripts []string

	// next is the cursor into Transcripts.
	next int

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeCalls records every invocation of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the next scripted transcript.
func (p *Provider) Transcribe(_ context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]byte, len(audio))
	copy(buf, audio)
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Audio: buf, Cfg: cfg})

	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Transcripts) > 0 {
		i := p.next
		if i >= len(p.Transcripts) {
			i = len(p.Transcripts) - 1
		}
		p.next++
		return p.Transcripts[i], nil
	}
	return p.Text, nil
}

// Reset clears all recorded calls and rewinds the transcript queue.
// Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
	p.next = 0
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
