package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the final extension of p for ext, which may be given with
// or without its leading dot. Used for sidecar files such as whisper JSON
// output and SRT subtitles. Dotfiles keep their name.
func ReplaceExt(p, ext string) string {
	if p == "" {
		return p
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := filepath.Base(p)
	if old := filepath.Ext(base); old != base {
		base = strings.TrimSuffix(base, old)
	}
	return filepath.Join(filepath.Dir(p), base+ext)
}
