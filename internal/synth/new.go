package synth

import (
	"context"
	"fmt"

	"github.com/nihongo-master/tts-cache/internal/config"
)

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.TTSConfig) (Provider, error) {
	switch cfg.Backend {
	case "", "azure":
		return NewAzure(AzureConfig{
			Key:     cfg.Azure.Key,
			Region:  cfg.Azure.Region,
			BaseURL: cfg.Azure.BaseURL,
		}), nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAI.Key,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		}), nil
	case "google":
		return NewGoogle(ctx, GoogleConfig{CredentialsFile: cfg.Google.CredentialsFile})
	case "local":
		return NewLocal(LocalConfig{
			PiperBinPath: cfg.Local.BinPath,
			ModelPath:    cfg.Local.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
