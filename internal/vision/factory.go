package vision

import (
	"fmt"
	"time"
)

// Options configures provider construction.
type Options struct {
	Kind              Kind
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int

	// AllowMockWithoutKey substitutes the mock estimator for a real provider
	// that has no API key, instead of failing.
	AllowMockWithoutKey bool
}

// NewProvider returns the provider selected by opts. It is meant to be called
// once at startup.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Kind {
	case KindMock, "":
		return NewMockProvider(), nil
	case KindGoogle, KindOpenAI, KindAnthropic:
	default:
		return nil, fmt.Errorf("unknown provider %q (expected mock, google, openai or anthropic)", opts.Kind)
	}

	if opts.APIKey == "" {
		if opts.AllowMockWithoutKey {
			return NewMockProvider(), nil
		}
		return nil, fmt.Errorf("API key required for provider %q", opts.Kind)
	}

	switch opts.Kind {
	case KindGoogle:
		return NewGoogleProvider(opts), nil
	case KindOpenAI:
		return NewOpenAIProvider(opts), nil
	default:
		return NewAnthropicProvider(opts), nil
	}
}
