// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription engine (e.g., a local whisper.cpp
// server or the whisper.cpp native bindings) and exposes a uniform batch
// interface: one recorded utterance in, one transcript out. The interview
// controller records a complete utterance per turn, so there is no streaming
// surface here — partial results would have no consumer.
//
// Implementations must be safe for concurrent use; multiple interview
// sessions may transcribe simultaneously.
package stt

import "context"

// TranscribeConfig describes the audio format and recognition hints for a
// transcription request. Zero values fall back to provider defaults.
type TranscribeConfig struct {
	// SampleRate is the audio sample rate in Hz. Common value: 16000
	// (STT-optimised mono).
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// STT engines). Implementors may downmix stereo internally.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en",
	// "de-DE"). An empty string lets the provider auto-detect the language,
	// if supported.
	Language string
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// Transcribe converts one recorded utterance into text. audio is either
	// raw 16-bit signed little-endian PCM matching cfg, or a complete WAV
	// file (implementations detect the RIFF header and unwrap it).
	//
	// An empty string with a nil error is a valid result for audio that was
	// decoded successfully but contained no recognisable speech; callers
	// must treat it like any other low-content utterance. A non-nil error
	// means the engine itself failed.
	Transcribe(ctx context.Context, audio []byte, cfg TranscribeConfig) (string, error)
}
