package adapters

import (
	"github.com/gage-technologies/mistral-go"
)

type LlmAdapter struct {
	Client *mistral.MistralClient
	apiKey string
	Model  string
}

func NewLlmAdapter(apiKey string, model string) *LlmAdapter {
	adapter := &LlmAdapter{apiKey: apiKey, Model: model}
	if model == "" {
		adapter.Model = "mistral-large-latest"
	}
	adapter.Client = mistral.NewMistralClientDefault(apiKey)
	return adapter
}

// HasKey reports whether an API key was configured.
func (a *LlmAdapter) HasKey() bool {
	return a.apiKey != ""
}
