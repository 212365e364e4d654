package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
)

// genkitCompleter implements Completer on top of Genkit, hiding the
// provider plugin behind the shared Message/Completion shape.
type genkitCompleter struct {
	g           *genkit.Genkit
	model       string // provider-qualified
	temperature float32
	maxTokens   int
}

// newGenkitCompleter initializes Genkit with the plugin matching cfg.Mode
// and returns the completer plus the provider-qualified model name.
func newGenkitCompleter(ctx context.Context, cfg Config) (*genkitCompleter, string, error) {
	var (
		g     *genkit.Genkit
		model string
	)

	switch cfg.Mode {
	case ModeLocal:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, "", errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.Model,
			Type: "chat",
		}, nil)
		model = "ollama/" + cfg.Model

	case ModeRemote:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.APIKey}))
		if g == nil {
			return nil, "", errors.New("initializing genkit with googleai provider")
		}
		model = "googleai/" + cfg.Model

	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	return &genkitCompleter{
		g:           g,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, model, nil
}

// Complete renders the request into Genkit messages and generates once.
func (c *genkitCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	messages := make([]*ai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		case "tool":
			// Historical tool results are replayed as labeled user context;
			// the providers' native tool-call turns only exist inside an
			// agentic loop, which this core does not run.
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart("[tool result] "+m.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		}
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithMessages(messages...),
		ai.WithConfig(map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &Completion{Text: resp.Text(), Model: c.model}, nil
}
