package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"/data/talk.mp4", ".json", "/data/talk.json"},
		{"/data/talk.mp4", "json", "/data/talk.json"},
		{"/data/archive.tar.gz", ".json", "/data/archive.tar.json"},
		{"/data/noext", ".json", "/data/noext.json"},
		{"/data/.hidden", ".json", "/data/.hidden.json"},
		{"/exports/clip.final.mp4", "srt", "/exports/clip.final.srt"},
		{"/exports/clip.mp4", "", "/exports/clip"},
		{"", ".json", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), ReplaceExt(filepath.FromSlash(tt.path), tt.ext))
		})
	}
}
