package transcribe

import (
	"errors"
	"fmt"
)

// Kind classifies why a transcription produced no result.
type Kind int

const (
	FileNotFound Kind = iota
	ModelLoadFailure
	SubprocessFailure
	UnknownTranscriptionFailure
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case ModelLoadFailure:
		return "model load failure"
	case SubprocessFailure:
		return "subprocess failure"
	case UnknownTranscriptionFailure:
		return "transcription failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind, true
	}
	return 0, false
}
