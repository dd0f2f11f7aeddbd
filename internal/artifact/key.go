package artifact

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const (
	filePrefix = "tts_"
	keyLength  = 8
)

// ContentKey derives the cache key for a (text, speed) pair: the first eight
// hex digits of md5(text + speed). It indexes a cache and is not a security
// boundary.
func ContentKey(text, speed string) string {
	sum := md5.Sum([]byte(text + speed))
	return hex.EncodeToString(sum[:])[:keyLength]
}

// Filename returns the on-disk name of the artifact for key.
func Filename(key, ext string) string {
	return filePrefix + key + ext
}

// safeName reports whether name addresses a single entry directly inside the
// output directory. Dot-files are rejected so in-progress temp files are
// never served.
func safeName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`+"\x00") {
		return false
	}
	return filepath.IsLocal(name) && filepath.Base(name) == name
}

// ContentType returns the MIME type served for an artifact filename.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}
