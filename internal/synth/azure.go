package synth

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const azureOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

// AzureConfig holds configuration for the Azure Speech backend.
type AzureConfig struct {
	Key     string
	Region  string // e.g. "japaneast"
	BaseURL string // default: "https://<region>.tts.speech.microsoft.com"
}

// Azure synthesizes speech through the Azure Speech REST API. Neural voice
// ids such as ja-JP-NanamiNeural and prosody rates such as "+10%" are native
// to this API, so both go through untouched.
type Azure struct {
	cfg        AzureConfig
	httpClient *http.Client
}

// NewAzure creates an Azure backend with defaults applied.
func NewAzure(cfg AzureConfig) *Azure {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.Region)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Azure{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (a *Azure) Name() string { return "azure-speech" }

// Synthesize posts an SSML document and returns the MP3 body.
func (a *Azure) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if req.Voice == "" {
		return nil, fmt.Errorf("azure: voice is required")
	}
	speed := req.Speed
	if speed == "" {
		speed = DefaultSpeed
	}

	ssml, err := buildSSML(req.Text, req.Voice, speed)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/cognitiveservices/v1", bytes.NewReader(ssml))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.Key)
	httpReq.Header.Set("User-Agent", "tts-cache")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("azure request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("azure tts failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &Result{
		Audio:       audio,
		ContentType: "audio/mpeg",
	}, nil
}

// buildSSML renders the speak document. The xml:lang attribute comes from
// the voice id prefix ("ja-JP-NanamiNeural" -> "ja-JP").
func buildSSML(text, voice, rate string) ([]byte, error) {
	lang := "ja-JP"
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		lang = parts[0] + "-" + parts[1]
	}

	var buf bytes.Buffer
	buf.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="`)
	if err := xml.EscapeText(&buf, []byte(lang)); err != nil {
		return nil, fmt.Errorf("escape ssml: %w", err)
	}
	buf.WriteString(`"><voice name="`)
	if err := xml.EscapeText(&buf, []byte(voice)); err != nil {
		return nil, fmt.Errorf("escape ssml: %w", err)
	}
	buf.WriteString(`"><prosody rate="`)
	if err := xml.EscapeText(&buf, []byte(rate)); err != nil {
		return nil, fmt.Errorf("escape ssml: %w", err)
	}
	buf.WriteString(`">`)
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("escape ssml: %w", err)
	}
	buf.WriteString(`</prosody></voice></speak>`)
	return buf.Bytes(), nil
}
