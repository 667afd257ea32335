package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// loadImageDataURL reads an image file and returns it as a data URL.
func loadImageDataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %q: %w", path, err)
	}
	mimeType := http.DetectContentType(raw)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%q does not look like an image (detected %s)", path, mimeType)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// writeImageDataURL decodes a data URL and writes the bytes to path.
func writeImageDataURL(dataURL, path string) error {
	idx := strings.Index(dataURL, "base64,")
	if idx < 0 {
		return fmt.Errorf("result is not a base64 data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len("base64,"):])
	if err != nil {
		return fmt.Errorf("decode result image: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write image %q: %w", path, err)
	}
	return nil
}
