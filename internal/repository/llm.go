package repository

import (
	"context"
	"fmt"

	"github.com/gage-technologies/mistral-go"
	"go.uber.org/zap"

	"askgm/internal/adapters"
	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

type LlmRepo struct {
	adapter   *adapters.LlmAdapter
	maxTokens int
	log       *zap.SugaredLogger
}

func NewLlmRepository(adapter *adapters.LlmAdapter, maxTokens int, log *zap.SugaredLogger) *LlmRepo {
	return &LlmRepo{adapter: adapter, maxTokens: maxTokens, log: log}
}

// Complete sends the system prompt followed by the conversation and returns
// the assistant's reply.
func (l *LlmRepo) Complete(ctx context.Context, system string, turns []domain.ChatTurn) (string, error) {
	if !l.adapter.HasKey() {
		return "", fmt.Errorf("%w: no API key configured", errs.ErrTextGenerationFailed)
	}

	messages := make([]mistral.ChatMessage, 0, len(turns)+1)
	messages = append(messages, mistral.ChatMessage{Role: mistral.RoleSystem, Content: system})
	for _, t := range turns {
		role := mistral.RoleUser
		if t.Role == domain.RoleAssistant {
			role = mistral.RoleAssistant
		}
		messages = append(messages, mistral.ChatMessage{Role: role, Content: t.Content})
	}

	params := mistral.DefaultChatRequestParams
	if l.maxTokens > 0 {
		params.MaxTokens = l.maxTokens
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		res, err := l.adapter.Client.Chat(l.adapter.Model, messages, &params)
		if err != nil {
			done <- result{err: err}
			return
		}
		if len(res.Choices) == 0 {
			done <- result{err: fmt.Errorf("empty completion")}
			return
		}
		done <- result{text: fmt.Sprintf("%v", res.Choices[0].Message.Content)}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			l.log.Errorw("send request to llm", "error", r.err)
			return "", fmt.Errorf("%w: %v", errs.ErrTextGenerationFailed, r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", errs.ErrTextGenerationFailed, ctx.Err())
	}
}
