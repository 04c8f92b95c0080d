// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis engine (e.g., a local Coqui TTS
// server) and exposes a uniform batch interface: one utterance of text in,
// one audio clip out. The audio bytes are opaque to callers — the interview
// controller forwards them to the client without inspecting the codec.
//
// Synthesis is best-effort in the interview flow: a failure is logged and the
// text reply is still delivered, so implementations should fail fast rather
// than retry internally.
package tts

import "context"

// VoiceProfile identifies a synthesis voice on a TTS backend.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier (e.g., a Coqui speaker ID
	// or a speaker_wav reference for XTTS).
	ID string

	// Name is a human-readable display name.
	Name string

	// Provider names the backend this profile belongs to (e.g., "coqui").
	Provider string

	// Metadata carries provider-specific attributes (voice type, model name).
	// May be nil.
	Metadata map[string]string
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// Synthesize converts one utterance of text into an audio clip using the
	// given voice. The returned bytes are a complete audio file in the
	// provider's native container format; callers treat them as opaque.
	//
	// Returns an error if synthesis fails or ctx is cancelled. Implementors
	// must not return partial audio alongside an error.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
