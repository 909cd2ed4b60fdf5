// Package verify asks an LLM whether a headline satisfies a watch condition.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/llm"
	"github.com/snoopa/firehose/internal/platform/observability"
)

const promptTemplate = `You are a strict fact-checker. Given a news headline and snippet, determine whether it satisfies the following condition.

Condition: %s
Headline: %s
Snippet: %s

Reply with ONLY "true" if the condition is satisfied, or "false" if it is not. No explanation.`

// Verifier outcomes for metrics.
const (
	OutcomeTrue  = "true"
	OutcomeFalse = "false"
	OutcomeError = "error"
)

// Claim is the text under test and the condition it must satisfy.
type Claim struct {
	Title     string
	Snippet   string
	Condition string
}

// Verifier asks an LLM client for a strict true/false verdict.
type Verifier struct {
	client llm.Client
	logger *zerolog.Logger
}

func New(client llm.Client, logger *zerolog.Logger) *Verifier {
	return &Verifier{
		client: client,
		logger: logger,
	}
}

// Verify reports whether the claim satisfies its condition. Any backend error
// yields false together with the error; callers treat both as "not verified".
func (v *Verifier) Verify(ctx context.Context, c Claim) (bool, error) {
	prompt := BuildPrompt(c)

	reply, err := v.client.CompleteText(ctx, prompt)
	if err != nil {
		observability.VerifierOutcomes.WithLabelValues(OutcomeError).Inc()

		return false, fmt.Errorf("verify condition: %w", err)
	}

	ok := ParseVerdict(reply)

	outcome := OutcomeFalse
	if ok {
		outcome = OutcomeTrue
	}

	observability.VerifierOutcomes.WithLabelValues(outcome).Inc()

	v.logger.Debug().
		Str("headline", c.Title).
		Str("reply", reply).
		Bool("verified", ok).
		Msg("condition verified")

	return ok, nil
}

// BuildPrompt renders the single-turn prompt sent to the model.
func BuildPrompt(c Claim) string {
	return fmt.Sprintf(promptTemplate,
		strings.TrimSpace(c.Condition),
		strings.TrimSpace(c.Title),
		strings.TrimSpace(c.Snippet))
}

// ParseVerdict returns true only for an explicit "true" reply. Surrounding
// quotes, backticks and a trailing period are tolerated.
func ParseVerdict(reply string) bool {
	s := strings.TrimSpace(reply)
	s = strings.TrimSuffix(s, ".")
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")

	return strings.EqualFold(s, "true")
}
