package cliui

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName matches the cl100k_base scheme most current model tool-use
// prompts are estimated against.
const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// EstimateTokens returns a rough token count for s, used to flag tools or
// prompts whose descriptions would eat an outsized share of a model's
// context window in list-tools output. Returns 0, along with the
// encoding error, if the encoding table failed to load.
func EstimateTokens(s string) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	if encErr != nil {
		return 0, encErr
	}
	return len(enc.Encode(s, nil, nil)), nil
}
