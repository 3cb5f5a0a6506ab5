// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a transcription service (e.g. the OpenAI audio API or
// a local whisper-server) behind a single batch call: a recorded clip goes
// in, the transcript text comes out. Door-assistant clips are a few seconds
// long, so no streaming interface is needed.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Provider is the abstraction over any speech-to-text backend.
type Provider interface {
	// Transcribe converts a complete recorded audio clip to text. audio is
	// the raw container bytes as uploaded (webm, ogg, wav, mp3, …) and
	// filename is a hint whose extension tells the backend which container
	// to expect.
	//
	// Returns the transcript, which may be empty when the clip contains no
	// recognisable speech, or an error when the request fails or ctx is
	// cancelled. Callers treat both failure and an empty transcript as
	// "nothing usable was said".
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
