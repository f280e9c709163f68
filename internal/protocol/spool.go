// internal/protocol/spool.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/printfile"
)

// PrintedDir receives spool files once they have been printed
const PrintedDir = "printed"

// SpoolSource watches a directory for print jobs. YAML files are converted
// through printfile, .bin and .raw files are sent as they are. Printed files
// are moved to the printed subdirectory.
type SpoolSource struct {
	dir     string
	settle  time.Duration
	charset *charset.Charset
	logger  *zap.Logger
	statsRecorder
}

// NewSpoolSource creates a spool source. A file is picked up once it has not
// been written to for settle.
func NewSpoolSource(dir string, settle time.Duration, cs *charset.Charset, logger *zap.Logger) *SpoolSource {
	return &SpoolSource{
		dir:     dir,
		settle:  settle,
		charset: cs,
		logger:  orNop(logger).With(zap.String("protocol", "spool"), zap.String("dir", dir)),
	}
}

// Name returns the spool directory
func (s *SpoolSource) Name() string {
	return fmt.Sprintf("Spool: %s", s.dir)
}

// Run prints the jobs already waiting, then watches for new ones until ctx
// is cancelled
func (s *SpoolSource) Run(ctx context.Context, sink ByteSink) error {
	if err := os.MkdirAll(filepath.Join(s.dir, PrintedDir), 0o755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create spool watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.connected(true)
	defer s.connected(false)

	pending, err := s.waiting()
	if err != nil {
		return err
	}
	for _, path := range pending {
		s.print(path, sink)
	}
	s.logger.Info("Watching spool directory for print jobs")

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if jobKind(event.Name) == "" {
				continue
			}
			path := event.Name
			if t, ok := timers[path]; ok {
				t.Reset(s.settle)
				continue
			}
			timers[path] = time.AfterFunc(s.settle, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			s.print(path, sink)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.failed()
			s.logger.Error("Spool watcher error", zap.Error(err))
		}
	}
}

// waiting lists the jobs already in the directory, oldest name first
func (s *SpoolSource) waiting() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}
	var jobs []string
	for _, e := range entries {
		if e.IsDir() || jobKind(e.Name()) == "" {
			continue
		}
		jobs = append(jobs, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(jobs)
	return jobs, nil
}

func (s *SpoolSource) print(path string, sink ByteSink) {
	logger := s.logger.With(zap.String("job", filepath.Base(path)))
	data, err := s.load(path, logger)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		s.failed()
		logger.Error("Failed to load print job", zap.Error(err))
		return
	}
	if len(data) > 0 {
		deliver(sink, data, &s.statsRecorder, logger)
	}

	done := filepath.Join(s.dir, PrintedDir, filepath.Base(path))
	if err := os.Rename(path, done); err != nil {
		logger.Warn("Failed to move printed job", zap.Error(err))
		return
	}
	logger.Info("Print job done", zap.Int("bytes", len(data)))
}

func (s *SpoolSource) load(path string, logger *zap.Logger) ([]byte, error) {
	switch jobKind(path) {
	case "yaml":
		f, err := printfile.ParseFile(path)
		if err != nil {
			return nil, err
		}
		data, err := printfile.NewReader(f, s.charset, logger).ReadAll()
		if err != nil && !errors.Is(err, printfile.ErrNoLineFeed) {
			return nil, err
		}
		return data, nil
	default:
		return os.ReadFile(path)
	}
}

func jobKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".bin", ".raw":
		return "raw"
	default:
		return ""
	}
}
