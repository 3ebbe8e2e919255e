// Package classifier scores chat messages for advertisement likelihood
// using an LLM backend.
package classifier

import (
	"context"
	"errors"
	"regexp"
	"strconv"
)

// Client scores a message text for advertisement likelihood.
type Client interface {
	// Classify returns the advertisement score for the given text.
	// A returned error means the verdict is unknown, not that the
	// message is clean.
	Classify(ctx context.Context, text string) (Result, error)
}

// Result holds a classification verdict.
type Result struct {
	// Score is the advertisement confidence, 0 (clean) through 10 (certain ad).
	Score int

	// RawAnswer is the model output the score was parsed from.
	RawAnswer string
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseScore extracts the score from a model answer. It takes the first run
// of digits, treats an absent number as 0, and clamps the result to [0, 10].
// Overflowing numbers clamp high rather than failing.
func ParseScore(answer string) int {
	match := digitRun.FindString(answer)
	if match == "" {
		return 0
	}

	score, err := strconv.Atoi(match)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 10
		}
		return 0
	}

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
