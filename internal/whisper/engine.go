package whisper

import (
	"context"
	"time"
)

// Language is the only language banglastt transcribes.
const Language = "bn"

// LanguageName is the human-readable name of Language.
const LanguageName = "Bengali"

type TranscriptionRequest struct {
	Samples    []float32
	SampleRate int
	ModelPath  string
	Language   string
}

// Result is the transcript together with what produced it.
type Result struct {
	Text      string
	Language  string
	ModelPath string
	Elapsed   time.Duration
}

type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (Result, error)
}
