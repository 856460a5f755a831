package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/gaiatest/pkg/core"
)

// SaveAttachment writes an in-memory attachment under the scenario's assets
// directory and returns it with Path set relative to outputDir.
func SaveAttachment(outputDir, scenarioID string, attempt int, att core.Attachment) (core.Attachment, error) {
	dir := filepath.Join(outputDir, "assets", scenarioID)
	if err := ensureDir(dir); err != nil {
		return att, err
	}

	filename := fmt.Sprintf("attempt-%d-%s%s", attempt, att.Name, extensionFor(att.ContentType))
	if err := os.WriteFile(filepath.Join(dir, filename), att.Body, 0o644); err != nil {
		return att, err
	}

	att.Path = filepath.Join("assets", scenarioID, filename)
	return att, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case core.ContentTypePNG:
		return ".png"
	case core.ContentTypeJPEG:
		return ".jpg"
	case core.ContentTypeHTML:
		return ".html"
	case core.ContentTypeJSON:
		return ".json"
	case core.ContentTypeText:
		return ".log"
	default:
		return ".txt"
	}
}
