package recognizer

import (
	"fmt"

	"murmur/internal/config"
	"murmur/internal/services"
)

// NewFactory returns the engine factory for the configured backend.
func NewFactory(cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recognizer", "factory", "config is nil", nil)
	}
	switch cfg.Engine.Backend {
	case config.BackendWhisperCPP, "":
		binary := cfg.Engine.WhisperBinary
		threads := cfg.Engine.Threads
		return func() (Engine, error) {
			return NewWhisperCPP(binary, threads), nil
		}, nil
	case config.BackendOpenAI:
		opts := OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAITimeout(),
		}
		return func() (Engine, error) {
			return NewOpenAI(opts), nil
		}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "recognizer", "factory",
			fmt.Sprintf("unknown engine backend %q", cfg.Engine.Backend), nil)
	}
}
