package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/tokens"
	copilot "github.com/github/copilot-sdk/go"
)

//go:generate go tool mockgen -source copilot.go -destination mock_copilot_test.go -package llm

// copilotSession is just an interface over [*copilot.Session]
type copilotSession interface {
	// On maps to [copilot.Session.On]
	On(handler copilot.SessionEventHandler) func()

	// SendAndWait maps to [copilot.Session.SendAndWait]
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)
}

// copilotClient is just an interface over [*copilot.Client]
type copilotClient interface {
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error)
	Start(ctx context.Context) error
	Stop() error
}

type copilotClientWrapper struct {
	inner *copilot.Client
}

func (w *copilotClientWrapper) CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	sess, err := w.inner.CreateSession(ctx, config)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (w *copilotClientWrapper) Start(ctx context.Context) error {
	return w.inner.Start(ctx)
}

func (w *copilotClientWrapper) Stop() error {
	return w.inner.Stop()
}

// CopilotClient runs each request as a fresh Copilot session. Sessions take a
// single prompt, so the conversation is flattened and tools are unsupported.
// The session does not report token usage; counts are estimated.
type CopilotClient struct {
	client    copilotClient
	startOnce sync.Once
	startErr  error
}

func NewCopilotClient() *CopilotClient {
	return newCopilotClientWith(&copilotClientWrapper{
		inner: copilot.NewClient(&copilot.ClientOptions{
			LogLevel:  "error",
			AutoStart: copilot.Bool(false),
		}),
	})
}

func newCopilotClientWith(client copilotClient) *CopilotClient {
	return &CopilotClient{client: client}
}

func (c *CopilotClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if len(req.Tools) > 0 {
		return nil, ErrToolsUnsupported
	}

	c.startOnce.Do(func() {
		c.startErr = c.client.Start(ctx)
	})
	if c.startErr != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", c.startErr)
	}

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               req.Model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var (
		mu       sync.Mutex
		parts    []string
		errorMsg string
	)
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		logSessionEvent(event)
		mu.Lock()
		defer mu.Unlock()
		switch event.Type {
		case copilot.AssistantMessage:
			if event.Data.Content != nil {
				parts = append(parts, *event.Data.Content)
			}
		case copilot.SessionError:
			errorMsg = "session failed with unknown error"
			if event.Data.Message != nil && *event.Data.Message != "" {
				errorMsg = *event.Data.Message
			}
		}
	})
	defer unsubscribe()

	prompt := flattenPrompt(req)
	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt}); err != nil {
		return nil, fmt.Errorf("copilot session: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if errorMsg != "" {
		return nil, errors.New(errorMsg)
	}

	text := strings.Join(parts, "\n")
	return &Response{
		Text:         text,
		FinishReason: FinishStop,
		Model:        req.Model,
		Usage: Usage{
			PromptTokens:     tokens.Estimate(prompt),
			CompletionTokens: tokens.Estimate(text),
		},
	}, nil
}

// Close stops the Copilot CLI process.
func (c *CopilotClient) Close() error {
	if err := c.client.Stop(); err != nil {
		slog.Info("failed to stop client", "error", err)
		return err
	}
	return nil
}

// flattenPrompt renders a conversation as one prompt: system text first,
// then the turns in order.
func flattenPrompt(req *Request) string {
	system, rest := splitSystem(req.Messages)
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	for i, m := range rest {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if m.Role != RoleUser {
			fmt.Fprintf(&b, "[%s]\n", m.Role)
		}
		b.WriteString(m.Content)
	}
	if req.JSON {
		b.WriteString("\n\nRespond with a single JSON object and nothing else.")
	}
	return b.String()
}

// denyAllTools refuses every permission request.
func denyAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-by-rules"}, nil
}

// logSessionEvent emits a debug record for a copilot session event, keeping
// only the fields the event actually carries.
func logSessionEvent(event copilot.SessionEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"type", event.Type}
	attrs = appendIfSet(attrs, "content", event.Data.Content)
	attrs = appendIfSet(attrs, "deltaContent", event.Data.DeltaContent)
	attrs = appendIfSet(attrs, "message", event.Data.Message)
	attrs = appendIfSet(attrs, "toolName", event.Data.ToolName)
	attrs = appendIfSet(attrs, "toolCallID", event.Data.ToolCallID)
	slog.Debug("copilot session event", attrs...)
}

func appendIfSet[T any](attrs []any, name string, v *T) []any {
	if v == nil {
		return attrs
	}
	return append(attrs, name, *v)
}
