// internal/protocol/file.go
package protocol

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/printfile"
)

// FileSource converts a YAML print file to printer bytes and delivers them
// in one batch
type FileSource struct {
	path    string
	charset *charset.Charset
	logger  *zap.Logger
	statsRecorder
}

// NewFileSource creates a source for the print file at path
func NewFileSource(path string, cs *charset.Charset, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:    path,
		charset: cs,
		logger:  orNop(logger).With(zap.String("protocol", "file"), zap.String("file", path)),
	}
}

// Name returns the device name
func (s *FileSource) Name() string {
	return fmt.Sprintf("File: %s", s.path)
}

// Run prints the whole file and returns
func (s *FileSource) Run(ctx context.Context, sink ByteSink) error {
	f, err := printfile.ParseFile(s.path)
	if err != nil {
		s.failed()
		return err
	}
	// A missing final line feed is logged by the reader, the partial line
	// is still sent and stays unprinted
	data, err := printfile.NewReader(f, s.charset, s.logger).ReadAll()
	if err != nil && !errors.Is(err, printfile.ErrNoLineFeed) {
		s.failed()
		return fmt.Errorf("failed to convert %s: %w", s.path, err)
	}
	if ctx.Err() != nil {
		return nil
	}
	if len(data) > 0 {
		deliver(sink, data, &s.statsRecorder, s.logger)
	}
	return nil
}
