package synth

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

var openAIVoices = voiceAlias{
	"ja-JP-NanamiNeural": string(openai.VoiceNova),
	"ja-JP-KeitaNeural":  string(openai.VoiceOnyx),
}

// OpenAIConfig holds configuration for the OpenAI speech backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "tts-1"
}

// OpenAI synthesizes speech using OpenAI's speech endpoint.
type OpenAI struct {
	client *openai.Client
	model  openai.SpeechModel
}

// NewOpenAI creates an OpenAI backend with defaults applied.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := openai.TTSModel1
	if cfg.Model != "" {
		model = openai.SpeechModel(cfg.Model)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (o *OpenAI) Name() string { return "openai-tts" }

// Synthesize converts text to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*Result, error) {
	rate, err := ParseRate(req.Speed)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(openAIVoices.resolve(req.Voice, string(openai.VoiceAlloy))),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          clamp(rate, 0.25, 4.0),
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &Result{
		Audio:       audio,
		ContentType: "audio/mpeg",
	}, nil
}
