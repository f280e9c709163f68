// internal/service/printer_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/config"
	"hp82240-service/internal/decoder"
	"hp82240-service/internal/escape"
	"hp82240-service/internal/model"
	"hp82240-service/internal/paper"
	"hp82240-service/internal/printfile"
	"hp82240-service/internal/protocol"
	"hp82240-service/internal/utils"
)

// ErrEmptyJob is returned for print requests without data
var ErrEmptyJob = errors.New("print job is empty")

// PrinterService owns the emulated printer. Bytes from the input source
// and from the HTTP API go through the same decoder, one call at a time.
type PrinterService struct {
	mutex     sync.Mutex
	processor *decoder.Processor
	decoder   *decoder.Decoder
	roll      *paper.Roll
	bus       *EventBus
	charset   *charset.Charset
	config    *config.Config
	logger    *utils.ServiceLogger
	startedAt time.Time
	session   uuid.UUID

	sourceMutex sync.RWMutex
	source      protocol.Source
	running     bool
	sourceErr   error
}

// NewPrinterService creates the printer. Every flushed line goes to the
// roll, to each of sinks and, as an event, to the bus. Extra is fed the raw
// text and graphic halves of each line.
func NewPrinterService(
	cfg *config.Config,
	roll *paper.Roll,
	bus *EventBus,
	sinks []paper.LineSink,
	extra []paper.Paper,
	logger *zap.Logger,
) (*PrinterService, error) {
	cs, err := charset.ByName(cfg.Input.Charset)
	if err != nil {
		return nil, fmt.Errorf("input.charset: %w", err)
	}

	lineSinks := paper.LineSinks{roll}
	lineSinks = append(lineSinks, sinks...)
	if bus != nil {
		lineSinks = append(lineSinks, NewBroadcaster(bus, "printer"))
	}
	output := paper.Multi{paper.NewAssembler(lineSinks)}
	output = append(output, extra...)

	dec := decoder.New(
		decoder.WithModelA(cfg.IsModelA()),
		decoder.WithLogger(logger),
	)

	return &PrinterService{
		processor: decoder.NewProcessor(dec, output),
		decoder:   dec,
		roll:      roll,
		bus:       bus,
		charset:   cs,
		config:    cfg,
		logger:    utils.NewServiceLogger(logger, "printer-service"),
		startedAt: time.Now(),
		session:   uuid.New(),
	}, nil
}

// WithSession sets the session ID used in logs and the archive
func (s *PrinterService) WithSession(id uuid.UUID) *PrinterService {
	s.session = id
	return s
}

// Session returns the session ID
func (s *PrinterService) Session() uuid.UUID {
	return s.session
}

// PrintResult reports what a print request did
type PrintResult struct {
	BytesAccepted int           `json:"bytes_accepted"`
	LinesPrinted  int           `json:"lines_printed"`
	Flags         decoder.Flags `json:"flags"`
}

// ProcessBytes implements protocol.ByteSink
func (s *PrinterService) ProcessBytes(data []byte) {
	s.Print(data)
}

// Print feeds raw printer bytes
func (s *PrinterService) Print(data []byte) PrintResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	before := s.processor.Printed()
	s.processor.ProcessBytes(data)
	return PrintResult{
		BytesAccepted: len(data),
		LinesPrinted:  s.processor.Printed() - before,
		Flags:         s.processor.Flags(),
	}
}

// PrintFile converts a YAML print file and feeds it
func (s *PrinterService) PrintFile(r io.Reader) (PrintResult, error) {
	f, err := printfile.Parse(r)
	if err != nil {
		return PrintResult{}, err
	}
	if len(f.Data) == 0 {
		return PrintResult{}, ErrEmptyJob
	}

	data, err := printfile.NewReader(f, s.charset, s.logger.Logger).ReadAll()
	if err != nil && !errors.Is(err, printfile.ErrNoLineFeed) {
		return PrintResult{}, err
	}
	return s.Print(data), nil
}

// Reset sends the reset escape sequence. As on the real printer the
// current line is kept.
func (s *PrinterService) Reset() PrintResult {
	res := s.Print([]byte{escape.Introducer, escape.Reset.Byte()})
	s.publish(model.EventPrinterReset, nil)
	s.logger.Info("Printer reset")
	return res
}

// PowerCycle discards the decoder state, including the current line, and
// restarts the printed count. Paper line numbers keep counting.
func (s *PrinterService) PowerCycle() decoder.Flags {
	s.mutex.Lock()
	s.processor.Restart()
	flags := s.processor.Flags()
	s.mutex.Unlock()

	s.publish(model.EventPrinterReset, map[string]interface{}{"power_cycle": true})
	s.logger.Info("Printer power cycled")
	return flags
}

// SelfTest prints the self-test page
func (s *PrinterService) SelfTest() PrintResult {
	res := s.Print([]byte{escape.Introducer, escape.SelfTest.Byte()})
	s.publish(model.EventSelfTest, map[string]interface{}{"lines": res.LinesPrinted})
	return res
}

// Flags returns the decoder state
func (s *PrinterService) Flags() decoder.Flags {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.processor.Flags()
}

// Paper returns the lines on the roll
func (s *PrinterService) Paper() []paper.Line {
	return s.roll.Lines()
}

// PaperSince returns the lines printed after line n
func (s *PrinterService) PaperSince(n int) []paper.Line {
	return s.roll.Since(n)
}

// PaperText returns the text on the roll
func (s *PrinterService) PaperText() string {
	return s.roll.Text()
}

// RenderPaper writes the roll as PNG
func (s *PrinterService) RenderPaper(w io.Writer, opts paper.RenderOptions) error {
	return paper.EncodePNG(w, paper.Bitmaps(s.roll.Lines()), opts)
}

// ClearPaper tears the paper off
func (s *PrinterService) ClearPaper() {
	s.roll.Reset()
	s.publish(model.EventPaperCleared, nil)
	s.logger.Info("Paper cleared")
}

// RunSource feeds the printer from src until it ends or ctx is cancelled
func (s *PrinterService) RunSource(ctx context.Context, src protocol.Source) error {
	s.sourceMutex.Lock()
	s.source = src
	s.running = true
	s.sourceErr = nil
	s.sourceMutex.Unlock()

	session := utils.NewSessionLogger(s.logger.Logger, s.session.String(), src.Name())
	session.LogStart(zap.String("model", s.config.Printer.Model))
	s.publish(model.EventSourceConnected, map[string]interface{}{"source": src.Name()})

	err := src.Run(ctx, s)

	s.sourceMutex.Lock()
	s.running = false
	s.sourceErr = err
	s.sourceMutex.Unlock()

	if err != nil {
		s.publish(model.EventSourceError, map[string]interface{}{"source": src.Name(), "error": err.Error()})
	} else {
		s.publish(model.EventSourceDisconnected, map[string]interface{}{"source": src.Name()})
	}
	session.LogEnd(s.Printed(), err)
	return err
}

// Printed returns the number of lines printed since start or power cycle
func (s *PrinterService) Printed() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.processor.Printed()
}

// PrinterStatus describes the emulated printer
type PrinterStatus struct {
	Session      string                  `json:"session_id"`
	Model        string                  `json:"model"`
	Charset      string                  `json:"charset"`
	Source       string                  `json:"source"`
	SourceActive bool                    `json:"source_active"`
	SourceError  string                  `json:"source_error,omitempty"`
	SourceStats  *protocol.ProtocolStats `json:"source_stats,omitempty"`
	LinesPrinted int                     `json:"lines_printed"`
	LinesOnRoll  int                     `json:"lines_on_roll"`
	Flags        decoder.Flags           `json:"flags"`
	Uptime       string                  `json:"uptime"`
}

// Status returns the printer status
func (s *PrinterService) Status() PrinterStatus {
	s.mutex.Lock()
	status := PrinterStatus{
		Session:      s.session.String(),
		Model:        s.config.Printer.Model,
		Charset:      s.charset.Name(),
		LinesPrinted: s.processor.Printed(),
		Flags:        s.processor.Flags(),
	}
	s.mutex.Unlock()

	status.LinesOnRoll = s.roll.Len()
	status.Uptime = time.Since(s.startedAt).Round(time.Second).String()

	s.sourceMutex.RLock()
	defer s.sourceMutex.RUnlock()
	if s.source != nil {
		status.Source = s.source.Name()
		if sp, ok := s.source.(protocol.StatsProvider); ok {
			stats := sp.Stats()
			status.SourceStats = &stats
		}
	}
	status.SourceActive = s.running
	if s.sourceErr != nil {
		status.SourceError = s.sourceErr.Error()
	}
	return status
}

// SourceHealthy reports whether the input source has not failed
func (s *PrinterService) SourceHealthy() bool {
	s.sourceMutex.RLock()
	defer s.sourceMutex.RUnlock()
	return s.sourceErr == nil
}

func (s *PrinterService) publish(eventType model.EventType, data interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(model.NewPrinterEvent(eventType, "printer", data))
}
