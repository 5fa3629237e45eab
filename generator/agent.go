package generator

import (
	"context"

	"github.com/rotisserie/eris"

	"auto_content_syndicator/logger"
	"auto_content_syndicator/strategy"
)

// Agent generates or revises a content strategy from a Brief and feedback.
type Agent struct {
	llm       LLMClient
	validator *strategy.Validator
	log       *logger.Logger
}

func NewAgent(llm LLMClient, log *logger.Logger) (*Agent, error) {
	if llm == nil {
		return nil, eris.New("llm client is required")
	}
	log = logger.OrNop(log)
	return &Agent{llm: llm, validator: strategy.NewValidator(log), log: log}, nil
}

// Generate produces a first strategy when prev is nil and a revision otherwise.
func (a *Agent) Generate(ctx context.Context, brief Brief, prev *strategy.ContentStrategy, history []Turn, comment string) (*strategy.ContentStrategy, error) {
	var prompt Prompt
	if prev == nil {
		prompt = BuildStrategyPrompt(brief)
	} else {
		prompt = BuildRevisionPrompt(brief, prev, comment, history)
	}

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "llm completion")
	}
	a.log.Debug("llm responded", "topic", brief.Topic, "chars", len(raw))
	return PostProcess(raw, a.validator)
}
