package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kmf-ai/server/internal/functions"
	"github.com/kmf-ai/server/internal/llm"
	"github.com/kmf-ai/server/internal/model"
)

const (
	DefaultMaxRounds = 5

	SearchingStatus = "Searching KCSE database..."
	AnalyzingStatus = "Analyzing results and preparing response..."

	FallbackAnswer = "I've gathered the KCSE exam information. If you need more specific details or have additional questions, please let me know!"
)

// Tools is the dispatch side of the tool registry.
type Tools interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (string, error)
	Status(name string) string
}

// Emitter receives the events of one run, in order.
type Emitter interface {
	Emit(event model.StreamEvent) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(event model.StreamEvent) error

func (f EmitterFunc) Emit(event model.StreamEvent) error { return f(event) }

type Config struct {
	SystemInstruction string
	MaxRounds         int
	ChunkDelay        time.Duration
}

type Agent struct {
	gateway           llm.Gateway
	tools             Tools
	systemInstruction string
	maxRounds         int
	chunkDelay        time.Duration
	logger            zerolog.Logger
}

func New(gateway llm.Gateway, tools Tools, cfg Config, logger zerolog.Logger) *Agent {
	a := &Agent{
		gateway:           gateway,
		tools:             tools,
		systemInstruction: cfg.SystemInstruction,
		maxRounds:         cfg.MaxRounds,
		chunkDelay:        cfg.ChunkDelay,
		logger:            logger,
	}
	if a.maxRounds <= 0 {
		a.maxRounds = DefaultMaxRounds
	}
	if a.chunkDelay < 0 {
		a.chunkDelay = 0
	}
	return a
}

// Run answers the conversation, streaming progress and the final answer
// through emit. It returns the final answer text. On failure exactly one
// error event is emitted before the error is returned.
func (a *Agent) Run(ctx context.Context, history []model.Message, emit Emitter) (string, error) {
	runID := uuid.NewString()
	logger := a.logger.With().Str("run_id", runID).Logger()
	started := time.Now()

	answer, err := a.run(ctx, logger, history, emit)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("chat run failed")
		if ctx.Err() == nil {
			_ = emit.Emit(model.ErrorEvent(err.Error()))
		}
		return "", err
	}

	logger.Info().Dur("elapsed", time.Since(started)).Int("answer_len", len(answer)).Msg("chat run complete")
	return answer, nil
}

func (a *Agent) run(ctx context.Context, logger zerolog.Logger, history []model.Message, emit Emitter) (string, error) {
	conversation := make([]model.Message, 0, len(history)+1)
	if a.systemInstruction != "" {
		conversation = append(conversation, model.SystemMessage(a.systemInstruction))
	}
	conversation = append(conversation, history...)

	if err := emit.Emit(model.StatusEvent(SearchingStatus)); err != nil {
		return "", err
	}

	resp, err := a.invoke(ctx, logger, conversation, 1)
	if err != nil {
		return "", err
	}

	for round := 1; ; round++ {
		requested, ok := resp.(llm.ToolCallsRequested)
		if !ok || len(requested.Calls) == 0 {
			break
		}
		if round >= a.maxRounds {
			logger.Warn().Int("rounds", round).Int("pending_calls", len(requested.Calls)).Msg("round limit reached")
			break
		}

		for _, call := range requested.Calls {
			if err := emit.Emit(model.StatusEvent(a.tools.Status(call.Name))); err != nil {
				return "", err
			}
		}

		conversation = append(conversation, model.AssistantToolCallMessage(requested.Content, requested.Calls))
		for _, call := range requested.Calls {
			conversation = append(conversation, model.ToolMessage(a.dispatch(ctx, logger, call)))
		}

		if err := emit.Emit(model.StatusEvent(AnalyzingStatus)); err != nil {
			return "", err
		}

		resp, err = a.invoke(ctx, logger, conversation, round+1)
		if err != nil {
			return "", err
		}
	}

	answer := resp.Text()
	if strings.TrimSpace(answer) == "" {
		answer = FallbackAnswer
	}

	if err := a.stream(ctx, answer, emit); err != nil {
		return "", err
	}

	if err := emit.Emit(model.CompleteEvent()); err != nil {
		return "", err
	}

	return answer, nil
}

func (a *Agent) invoke(ctx context.Context, logger zerolog.Logger, conversation []model.Message, round int) (llm.Response, error) {
	started := time.Now()
	resp, err := a.gateway.Invoke(ctx, conversation)
	if err != nil {
		return nil, err
	}

	event := logger.Debug().Int("round", round).Dur("elapsed", time.Since(started))
	if requested, ok := resp.(llm.ToolCallsRequested); ok {
		event = event.Int("tool_calls", len(requested.Calls))
	}
	event.Msg("model responded")

	return resp, nil
}

// dispatch runs one tool call. Failures become an error payload for the
// model and never end the run.
func (a *Agent) dispatch(ctx context.Context, logger zerolog.Logger, call model.ToolCall) model.ToolResult {
	result := model.ToolResult{CallID: call.ID, Name: call.Name}

	started := time.Now()
	payload, err := a.tools.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		logger.Warn().Err(err).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool call failed")
		result.Content = functions.ErrorPayload(fmt.Errorf("failed to execute %s: %w", call.Name, err))
		return result
	}

	logger.Debug().Str("tool", call.Name).Dur("elapsed", time.Since(started)).Int("payload_len", len(payload)).Msg("tool call done")
	result.Content = payload
	return result
}

// stream emits the answer one sentence at a time, pacing chunks by the
// configured delay. Only the last chunk is marked complete.
func (a *Agent) stream(ctx context.Context, answer string, emit Emitter) error {
	chunks := SplitSentences(answer)
	for i, chunk := range chunks {
		if i > 0 {
			if err := sleep(ctx, a.chunkDelay); err != nil {
				return err
			}
			chunk = " " + chunk
		}
		if err := emit.Emit(model.ContentEvent(chunk, i == len(chunks)-1)); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
