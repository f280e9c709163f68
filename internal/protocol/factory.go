// internal/protocol/factory.go
package protocol

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/config"
)

// NewSource creates the source selected by input.source
func NewSource(cfg *config.Config, logger *zap.Logger) (Source, error) {
	logger = orNop(logger)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	cs, err := charset.ByName(cfg.Input.Charset)
	if err != nil {
		return nil, fmt.Errorf("input.charset: %w", err)
	}

	logger.Info("Creating input source", zap.String("source", cfg.Input.Source))

	switch cfg.Input.Source {
	case config.SourceSerial:
		return NewSerialSource(cfg.Serial, logger), nil
	case config.SourceStdin:
		return NewStdinSource(nil, logger), nil
	case config.SourceFile:
		return NewFileSource(cfg.Input.File, cs, logger), nil
	case config.SourcePty:
		return NewPtySource(cfg.Input.PtyLink, logger), nil
	case config.SourceTCP:
		return NewTCPSource(cfg.Input.TCPAddr, cfg.Input.TCPIdleTimeout, logger), nil
	case config.SourceSpool:
		return NewSpoolSource(cfg.Input.SpoolDir, cfg.Input.SpoolSettle, cs, logger), nil
	case config.SourceNone:
		return IdleSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported input source: %s", cfg.Input.Source)
	}
}

// ValidateConfig checks the settings the selected source depends on
func ValidateConfig(cfg *config.Config) error {
	switch cfg.Input.Source {
	case config.SourceSerial:
		_, err := SerialMode(cfg.Serial)
		return err
	case config.SourceFile:
		if cfg.Input.File == "" {
			return fmt.Errorf("input file is required")
		}
	case config.SourceTCP:
		if cfg.Input.TCPAddr == "" {
			return fmt.Errorf("tcp listen address is required")
		}
	case config.SourceSpool:
		if cfg.Input.SpoolDir == "" {
			return fmt.Errorf("spool directory is required")
		}
	}
	return nil
}

// IdleSource delivers nothing, printing then only happens through the HTTP API
type IdleSource struct{}

// Name returns the device name
func (IdleSource) Name() string {
	return "none"
}

// Run waits for ctx to be cancelled
func (IdleSource) Run(ctx context.Context, _ ByteSink) error {
	<-ctx.Done()
	return nil
}
