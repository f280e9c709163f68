// internal/protocol/serial.go
package protocol

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"hp82240-service/internal/config"
)

const readBufferSize = 2000

// Port name prefixes used by auto-detection and matching
const (
	macUSBPrefix   = "cu.usb"
	linuxACMPrefix = "ttyACM"
	macModemPrefix = "tty.usbmodem"
)

// PortLister enumerates the serial ports of the system
type PortLister func() ([]string, error)

// PortOpener opens a serial port
type PortOpener func(name string, mode *serial.Mode) (serial.Port, error)

// SerialSource reads from the IR receiver attached via USB/serial. The
// receiver needs no handshake, it is ready as soon as the port is open.
type SerialSource struct {
	config config.SerialConfig
	logger *zap.Logger
	list   PortLister
	open   PortOpener
	port   string
	statsRecorder
}

// NewSerialSource creates a serial source. The port is selected when Run
// starts, an empty port name selects it automatically.
func NewSerialSource(cfg config.SerialConfig, logger *zap.Logger) *SerialSource {
	return &SerialSource{
		config: cfg,
		logger: orNop(logger).With(
			zap.String("protocol", "serial"),
			zap.String("port", cfg.Port),
		),
		list: serial.GetPortsList,
		open: serial.Open,
	}
}

// WithPorts replaces port enumeration and opening, for tests and emulated ports
func (s *SerialSource) WithPorts(list PortLister, open PortOpener) *SerialSource {
	if list != nil {
		s.list = list
	}
	if open != nil {
		s.open = open
	}
	return s
}

// Name returns the selected port, or the configured one before Run. It is
// safe to call while Run is active.
func (s *SerialSource) Name() string {
	if port := s.selectedPort(); port != "" {
		return port
	}
	if s.config.Port == "" {
		return "serial (auto-detect)"
	}
	return s.config.Port
}

// Run opens the port and forwards everything read until ctx is cancelled
func (s *SerialSource) Run(ctx context.Context, sink ByteSink) error {
	port, err := OpenPort(s.config, s.list, s.open, s.logger)
	if err != nil {
		return err
	}
	s.setPort(port.name)
	s.connected(true)
	defer func() {
		s.connected(false)
		if err := port.Close(); err != nil {
			s.logger.Warn("Failed to close serial port", zap.Error(err))
		}
	}()

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Serial source stopped", zap.String("port", port.name))
			return nil
		default:
		}

		// A read timeout returns zero bytes without an error
		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.failed()
			s.logger.Error("Serial read failed", zap.Error(err))
			return fmt.Errorf("failed to read from serial port %s: %w", port.name, err)
		}
		if n > 0 {
			deliver(sink, buf[:n], &s.statsRecorder, s.logger)
		}
	}
}

func (s *SerialSource) setPort(name string) {
	s.statsRecorder.mutex.Lock()
	defer s.statsRecorder.mutex.Unlock()
	s.port = name
}

func (s *SerialSource) selectedPort() string {
	s.statsRecorder.mutex.Lock()
	defer s.statsRecorder.mutex.Unlock()
	return s.port
}

// OpenedPort is a serial port together with its system name
type OpenedPort struct {
	serial.Port
	name string
}

// Name returns the system name of the port
func (p *OpenedPort) Name() string {
	return p.name
}

// OpenPort selects a port matching cfg.Port, configures it and sets the read timeout
func OpenPort(cfg config.SerialConfig, list PortLister, open PortOpener, logger *zap.Logger) (*OpenedPort, error) {
	logger = orNop(logger)
	if list == nil {
		list = serial.GetPortsList
	}
	if open == nil {
		open = serial.Open
	}

	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}
	if cfg.Port == "" {
		logger.Debug("Autodetect serial port", zap.Strings("ports", ports))
	} else {
		logger.Debug("Detect serial port", zap.String("wanted", cfg.Port), zap.Strings("ports", ports))
	}
	name, err := SelectPort(ports, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("could not open serial port: %w", err)
	}

	mode, err := SerialMode(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Opening serial port",
		zap.String("port", name),
		zap.Int("baud_rate", mode.BaudRate),
	)
	port, err := open(name, mode)
	if err != nil {
		logger.Error("Failed to open serial port", zap.String("port", name), zap.Error(err))
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	logger.Info("Serial port opened successfully", zap.String("port", name))
	return &OpenedPort{Port: port, name: name}, nil
}

// SerialMode maps the configuration to a serial mode
func SerialMode(cfg config.SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch cfg.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits: %d", cfg.StopBits)
	}

	switch strings.ToLower(cfg.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unsupported parity: %s", cfg.Parity)
	}
	return mode, nil
}

// SelectPort picks the port to open from the system ports. Without a wanted
// name, a single system port is taken as is, otherwise exactly one port must
// look like a USB serial adapter. With a name, exactly one port must contain
// it; the tty.usbmodem twins of macOS cu.usbmodem ports do not count.
func SelectPort(ports []string, wanted string) (string, error) {
	if wanted == "" {
		if len(ports) == 1 {
			return ports[0], nil
		}
		return single(ports, "", func(name string) bool {
			return strings.HasPrefix(name, macUSBPrefix) || strings.HasPrefix(name, linuxACMPrefix)
		})
	}
	return single(ports, wanted, func(name string) bool {
		return strings.Contains(name, wanted) && !strings.HasPrefix(name, macModemPrefix)
	})
}

func single(ports []string, wanted string, match func(name string) bool) (string, error) {
	var found []string
	for _, port := range ports {
		if match(filepath.Base(port)) {
			found = append(found, port)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		if wanted == "" {
			return "", fmt.Errorf("%w among %v", ErrNoPort, ports)
		}
		return "", fmt.Errorf("%w for %q among %v", ErrNoPort, wanted, ports)
	default:
		return "", fmt.Errorf("%w: %v", ErrAmbiguousPort, found)
	}
}

// PortInfo describes a serial port of the system
type PortInfo struct {
	Name         string     `json:"name"`
	IsUSB        bool       `json:"is_usb"`
	VID          string     `json:"vid,omitempty"`
	PID          string     `json:"pid,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Product      string     `json:"product,omitempty"`
	Board        *BoardInfo `json:"board,omitempty"`
	Selected     bool       `json:"selected"`
}

// ListPorts returns the serial ports of the system and marks the one that
// would be selected for wanted.
func ListPorts(wanted string) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	names := make([]string, 0, len(details))
	for _, d := range details {
		names = append(names, d.Name)
	}
	selected, _ := SelectPort(names, wanted)

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
			Selected:     d.Name == selected,
		}
		if board, ok := LookupBoard(d.VID, d.PID); d.IsUSB && ok {
			info.Board = &board
		}
		infos = append(infos, info)
	}
	return infos, nil
}
