package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentKeyDeterministic(t *testing.T) {
	assert.Equal(t, ContentKey("こんにちは", "+0%"), ContentKey("こんにちは", "+0%"))
	assert.Len(t, ContentKey("こんにちは", "+0%"), 8)
}

func TestContentKeyDistinct(t *testing.T) {
	corpus := []struct{ text, speed string }{
		{"こんにちは", "+0%"},
		{"こんにちは", "+10%"},
		{"こんにちは ", "+0%"},
		{"こんばんは", "+0%"},
		{"おはようございます", "-20%"},
		{"ありがとう", "+0%"},
	}
	for i := 0; i < 200; i++ {
		corpus = append(corpus, struct{ text, speed string }{fmt.Sprintf("文 %d", i), "+0%"})
	}

	seen := make(map[string]int)
	for i, c := range corpus {
		k := ContentKey(c.text, c.speed)
		if j, dup := seen[k]; dup {
			t.Fatalf("key collision between %q and %q", corpus[j].text, c.text)
		}
		seen[k] = i
	}
}

func TestSafeName(t *testing.T) {
	assert.True(t, safeName("tts_0a1b2c3d.mp3"))
	assert.True(t, safeName("nonexistent.mp3"))
	for _, bad := range []string{"", ".", "..", "../x", "x/../../y", "/abs", `a\b`, ".hidden", "a\x00b"} {
		assert.False(t, safeName(bad), bad)
	}
}

func TestCommitIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Commit("tts_deadbeef.mp3", []byte("audio")))

	ok, err := store.Exists("tts_deadbeef.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be renamed away")
	assert.Equal(t, "tts_deadbeef.mp3", entries[0].Name())

	assert.Error(t, store.Commit("../escape.mp3", []byte("x")))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.mp3"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewDiskStoreRequiresDir(t *testing.T) {
	_, err := NewDiskStore("")
	assert.Error(t, err)
}
