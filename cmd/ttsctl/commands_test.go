package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongo-master/tts-cache/internal/artifact"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeyCommand(t *testing.T) {
	out, err := run(t, "key", "こんにちは")
	require.NoError(t, err)

	key := artifact.ContentKey("こんにちは", "+0%")
	assert.Equal(t, key+"\ttts_"+key+".mp3\n", out)

	out, err = run(t, "key", "--speed", "+20%", "  こんにちは  ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, artifact.ContentKey("こんにちは", "+20%")))
}

func TestKeyCommandRejectsBlank(t *testing.T) {
	_, err := run(t, "key", "   ")
	assert.ErrorIs(t, err, artifact.ErrInvalidInput)
}

func TestVoicesCommand(t *testing.T) {
	out, err := run(t, "voices")
	require.NoError(t, err)
	assert.Equal(t, "ja-JP-NanamiNeural\tNanami\tFemale\nja-JP-KeitaNeural\tKeita\tMale\n", out)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("はい\n\n  いいえ  \n\t\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"はい", "いいえ"}, lines)
}
