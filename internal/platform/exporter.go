// Package platform queues finished clips for publication on social platforms.
package platform

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

type Platform string

const (
	YouTube Platform = "youtube"
	TikTok  Platform = "tiktok"
)

const StatusQueued = "queued"

var ErrUnsupportedPlatform = errors.New("unsupported platform")

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case YouTube, TikTok:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

type Result struct {
	Platform   Platform `json:"platform"`
	Status     string   `json:"status"`
	ExternalID string   `json:"external_id"`
}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export returns a queued publication whose external id is derived from
// the inputs, so repeated exports of the same clip share an id.
func (e *Exporter) Export(platform Platform, filePath, title string) Result {
	sum := sha1.Sum([]byte(string(platform) + ":" + filePath + ":" + title))
	return Result{
		Platform:   platform,
		Status:     StatusQueued,
		ExternalID: string(platform) + "_" + hex.EncodeToString(sum[:])[:12],
	}
}
