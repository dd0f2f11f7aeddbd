package synth

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

var googleVoices = voiceAlias{
	"ja-JP-NanamiNeural": "ja-JP-Neural2-B",
	"ja-JP-KeitaNeural":  "ja-JP-Neural2-C",
}

type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GoogleConfig holds configuration for the Google Cloud Text-to-Speech backend.
type GoogleConfig struct {
	CredentialsFile string
}

// Google synthesizes speech with Google Cloud Text-to-Speech.
type Google struct {
	client speechClient
}

// NewGoogle dials the Text-to-Speech API.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google tts client: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) Name() string { return "google-tts" }

func (g *Google) Close() error { return g.client.Close() }

// Synthesize converts text to MP3 audio.
func (g *Google) Synthesize(ctx context.Context, req Request) (*Result, error) {
	pbReq, err := googleRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.SynthesizeSpeech(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("google synthesize: %w", err)
	}

	return &Result{
		Audio:       resp.GetAudioContent(),
		ContentType: "audio/mpeg",
	}, nil
}

func googleRequest(req Request) (*texttospeechpb.SynthesizeSpeechRequest, error) {
	rate, err := ParseRate(req.Speed)
	if err != nil {
		return nil, err
	}

	voice := googleVoices.resolve(req.Voice, "ja-JP-Neural2-B")
	lang := "ja-JP"
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		lang = parts[0] + "-" + parts[1]
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  clamp(rate, 0.25, 4.0),
		},
	}, nil
}
