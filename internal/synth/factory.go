package synth

import (
	"fmt"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// NewSynthesizer creates a synthesis backend from configuration. An empty
// provider selects the offline backend so the service always has a working
// synthesizer.
func NewSynthesizer(config model.LLMConfig) (Synthesizer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAISynthesizer(config)

	case "offline", "":
		return NewOfflineSynthesizer(), nil

	default:
		return nil, fmt.Errorf("unknown synthesis provider: %s (supported: openai, offline)", config.Provider)
	}
}
