package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongo-master/tts-cache/internal/config"
)

func TestLocalArgs(t *testing.T) {
	l := NewLocal(LocalConfig{ModelPath: "ja.onnx"})
	assert.Equal(t, "piper", l.cfg.PiperBinPath)

	args, err := l.args("+0%")
	require.NoError(t, err)
	assert.Equal(t, []string{"--model", "ja.onnx", "--output_file", "-"}, args)

	args, err = l.args("+25%")
	require.NoError(t, err)
	assert.Equal(t, []string{"--model", "ja.onnx", "--output_file", "-", "--length_scale", "0.800"}, args)
}

func TestLocalRequiresModel(t *testing.T) {
	_, err := NewLocal(LocalConfig{}).Synthesize(context.Background(), Request{Text: "はい"})
	assert.ErrorContains(t, err, "TTS_LOCAL_PIPER_MODEL")
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, config.TTSConfig{Backend: "azure", Azure: config.AzureConfig{Region: "japaneast"}})
	require.NoError(t, err)
	assert.Equal(t, "azure-speech", p.Name())

	p, err = New(ctx, config.TTSConfig{Backend: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai-tts", p.Name())

	p, err = New(ctx, config.TTSConfig{Backend: "local", Local: config.LocalConfig{Model: "m.onnx"}})
	require.NoError(t, err)
	assert.Equal(t, "local-piper", p.Name())

	_, err = New(ctx, config.TTSConfig{Backend: "edge"})
	assert.Error(t, err)
}
