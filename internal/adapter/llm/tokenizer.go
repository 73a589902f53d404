// Package llm provides LLM provider adapters.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
// Uses cl100k_base encoding which is used by GPT-4 and is a reasonable
// approximation for other modern LLMs (Claude, Gemini).
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text
// using the cl100k_base encoding (GPT-4 tokenizer).
//
// This is suitable for size budgeting across providers since modern LLMs
// use similar tokenization approaches.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		// Fallback to character-based estimate if tiktoken fails
		return len(text) / 4
	}
	tokens := enc.Encode(text, nil, nil)
	return len(tokens)
}

// TruncateTokens cuts text down to at most maxTokens tokens, appending a
// truncation marker when anything was dropped. A maxTokens of zero or less
// returns the text unchanged.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}

	enc, err := getEncoder()
	if err != nil {
		// Character-based fallback, same 4-chars-per-token heuristic
		limit := maxTokens * 4
		if len(text) <= limit {
			return text
		}
		return text[:limit] + truncationMarker
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens]) + truncationMarker
}

const truncationMarker = "\n... [diff truncated]"
