package llm

import (
	"fmt"
	"io"
)

// Provider names accepted by New.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderCopilot    = "copilot"
	ProviderMock       = "mock"
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Retry    RetryConfig
}

// New builds the Client for opts.Provider.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderOpenRouter, ProviderOpenAI, "":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", providerOrDefault(opts.Provider))
		}
		return NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Retry), nil
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(opts.APIKey, opts.BaseURL, opts.Retry), nil
	case ProviderCopilot:
		return NewCopilotClient(), nil
	case ProviderMock:
		return NewDryRunClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}

// Close releases provider resources when the client holds any.
func Close(c Client) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func providerOrDefault(p string) string {
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}
