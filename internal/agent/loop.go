package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nbdavies/ant/internal/llm"
	"github.com/nbdavies/ant/internal/memory"
	"github.com/nbdavies/ant/internal/tools"
)

// defaultMaxToolIterations bounds model-requested tool rounds per turn.
const defaultMaxToolIterations = 5

// Loop processes one user turn at a time: assemble context, call the
// model, run requested tools, persist both sides of the exchange.
type Loop struct {
	logger   *slog.Logger
	client   llm.Client
	model    string
	log      *memory.Log
	asm      *Assembler
	registry *tools.Registry

	maxToolIterations int
}

// NewLoop creates the chat loop.
func NewLoop(logger *slog.Logger, client llm.Client, model string, convlog *memory.Log, asm *Assembler, registry *tools.Registry) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger:            logger,
		client:            client,
		model:             model,
		log:               convlog,
		asm:               asm,
		registry:          registry,
		maxToolIterations: defaultMaxToolIterations,
	}
}

// Run processes one user turn and returns the assistant's reply.
// Connectivity failures are degraded into a friendly reply rather
// than an error; the exchange is recorded either way.
func (l *Loop) Run(ctx context.Context, userInput string) (string, error) {
	history, err := l.log.RecentMessages(l.asm.Window())
	if err != nil {
		l.logger.Warn("history load failed, continuing without", "error", err)
		history = nil
	}

	if err := l.log.Append("user", userInput); err != nil {
		return "", fmt.Errorf("agent: record user message: %w", err)
	}

	messages := l.asm.BuildTurn(userInput, history)

	reply, toolsUsed, err := l.converse(ctx, messages)
	if err != nil {
		friendly, ok := connectivityReply(err)
		if !ok {
			return "", err
		}
		l.logger.Warn("model unavailable", "error", err)
		reply = friendly
	}

	var meta map[string]any
	if len(toolsUsed) > 0 {
		meta = map[string]any{"tools_used": toolsUsed}
	}
	if err := l.log.AppendWithMetadata("assistant", reply, meta); err != nil {
		l.logger.Warn("record assistant reply failed", "error", err)
	}

	return reply, nil
}

// converse drives the model-call/tool-execution cycle until the model
// produces a plain reply or the iteration budget runs out. It returns
// the reply and the names of tools executed along the way.
func (l *Loop) converse(ctx context.Context, messages []llm.Message) (string, []string, error) {
	var schemas []map[string]any
	if l.registry != nil && l.registry.Len() > 0 {
		schemas = l.registry.Schemas()
	}

	var toolsUsed []string
	for iter := 0; iter < l.maxToolIterations; iter++ {
		resp, err := l.client.Chat(ctx, l.model, messages, schemas)
		if err != nil {
			return "", nil, err
		}

		msg := resp.Message
		calls := msg.ToolCalls
		if len(calls) == 0 {
			// Models without native tool calling emit the request as
			// text; check before treating content as the reply.
			calls = llm.ParseTextToolCalls(msg.Content)
			if len(calls) == 0 {
				return msg.Content, toolsUsed, nil
			}
			msg.Content = ""
			msg.ToolCalls = calls
		}

		messages = append(messages, msg)
		for _, call := range calls {
			toolsUsed = append(toolsUsed, call.Function.Name)
			messages = append(messages, l.runTool(ctx, call))
		}
	}

	// Budget exhausted: force a plain answer from what we have.
	l.logger.Warn("tool iteration limit reached", "limit", l.maxToolIterations)
	resp, err := l.client.Chat(ctx, l.model, messages, nil)
	if err != nil {
		return "", nil, err
	}
	return resp.Message.Content, toolsUsed, nil
}

// runTool executes one tool call and wraps the outcome as a tool
// message. Tool failures become an error payload for the model, never
// a fault.
func (l *Loop) runTool(ctx context.Context, call llm.ToolCall) llm.Message {
	name := call.Function.Name
	l.logger.Debug("tool call", "tool", name)

	result, err := l.registry.Execute(ctx, name, call.Function.Arguments)
	if err != nil {
		l.logger.Warn("tool failed", "tool", name, "error", err)
		result = fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	return llm.Message{Role: "tool", Content: result, ToolCallID: name}
}

// connectivityReply maps endpoint failures to user-facing text.
func connectivityReply(err error) (string, bool) {
	switch {
	case errors.Is(err, llm.ErrUnreachable):
		return "I can't reach the model server right now. Make sure Ollama is running, then try again.", true
	case errors.Is(err, llm.ErrTimeout):
		return "The model took too long to respond. It might still be loading or overloaded; give it a moment and try again.", true
	}
	return "", false
}
