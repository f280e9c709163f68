// internal/paper/file.go
package paper

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"hp82240-service/internal/decoder"
)

// FilePaper mirrors everything printed since start-up into a text file and
// a PNG image. Both files are rewritten on every line.
type FilePaper struct {
	mu        sync.Mutex
	textPath  string
	imagePath string
	opts      RenderOptions
	text      strings.Builder
	bitmaps   []decoder.Bitmap
	logger    *zap.Logger
}

// NewFilePaper creates the sink. The directory is created if missing.
func NewFilePaper(dir, textFile, imageFile string, opts RenderOptions, logger *zap.Logger) (*FilePaper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create paper directory: %w", err)
	}
	return &FilePaper{
		textPath:  filepath.Join(dir, textFile),
		imagePath: filepath.Join(dir, imageFile),
		opts:      opts,
		logger:    logger.With(zap.String("component", "paper")),
	}, nil
}

// PrintLine implements Paper
func (f *FilePaper) PrintLine(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.text.WriteString(text)
	f.text.WriteByte('\n')
	if text == "" {
		f.logger.Debug("Line feed")
	} else {
		f.logger.Info("Printing", zap.String("line", text))
	}

	if err := os.WriteFile(f.textPath, []byte(f.text.String()), 0644); err != nil {
		f.logger.Error("Cannot write the text file", zap.String("path", f.textPath), zap.Error(err))
	}
}

// PrintGraphic implements Paper
func (f *FilePaper) PrintGraphic(bitmap decoder.Bitmap) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bitmaps = append(f.bitmaps, bitmap)

	var buf bytes.Buffer
	if err := EncodePNG(&buf, f.bitmaps, f.opts); err != nil {
		f.logger.Error("Cannot encode the image", zap.Error(err))
		return
	}
	if err := os.WriteFile(f.imagePath, buf.Bytes(), 0644); err != nil {
		f.logger.Error("Cannot write the image file", zap.String("path", f.imagePath), zap.Error(err))
	}
}

// Paths returns the text and image file locations
func (f *FilePaper) Paths() (string, string) {
	return f.textPath, f.imagePath
}
