package llm

import (
	"context"
)

// Client generates the natural-language part of a briefing. Implementations
// wrap one provider; callers never depend on which.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
