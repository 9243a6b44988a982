// Package export writes a board out of the app: PNG files from rendered
// pixels and vector PDFs from the stroke model.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"LocalSketch/internal/state"
)

// FileName is the name every PNG download is saved under.
const FileName = "canvas-image.png"

const pngDataPrefix = "data:image/png;base64,"

var ErrNotPNGDataURL = errors.New("export: not a PNG data URL")

// PNGDataURL encodes img as a data:image/png;base64 URL.
func PNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DownloadDataURL decodes a PNG data URL and writes it to dir as FileName,
// replacing any earlier download. It returns the written path.
func DownloadDataURL(dataURL, dir string) (string, error) {
	payload, ok := strings.CutPrefix(dataURL, pngDataPrefix)
	if !ok {
		return "", ErrNotPNGDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPNGDataURL, err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPNGDataURL, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	state.Logger().Info("image saved", "component", "export", "path", path, "bytes", len(data))
	return path, nil
}
