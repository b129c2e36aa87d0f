// Package insight builds health-insight prompts and sends them to a language
// model. Model output is opaque prose stored verbatim by the caller.
package insight

import (
	"context"
	"errors"
)

// SystemInstruction persona shared by every provider.
const SystemInstruction = "You are a private, secure, and empathetic health wellness AI companion. " +
	"You prioritize safety and flag unusual health data gently."

// ErrEmptyResponse the model answered without text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator returns free text for a prompt. Implementations may be slow or fail.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
