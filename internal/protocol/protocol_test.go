package protocol

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap/zaptest"

	"hp82240-service/internal/config"
)

type recordingSink struct {
	mutex sync.Mutex
	data  []byte
	calls int
}

func (r *recordingSink) ProcessBytes(data []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.data = append(r.data, data...)
	r.calls++
}

func (r *recordingSink) bytes() []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]byte(nil), r.data...)
}

func (r *recordingSink) waitFor(t *testing.T, want []byte) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if bytes.Equal(r.bytes(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("received % X, want % X", r.bytes(), want)
}

func TestSelectPort(t *testing.T) {
	tests := []struct {
		name    string
		ports   []string
		wanted  string
		want    string
		wantErr error
	}{
		{"single port", []string{"/dev/ttyS0"}, "", "/dev/ttyS0", nil},
		{"linux acm", []string{"/dev/ttyS0", "/dev/ttyS1", "/dev/ttyACM0"}, "", "/dev/ttyACM0", nil},
		{"mac usb", []string{"/dev/cu.Bluetooth", "/dev/cu.usbmodem1101", "/dev/tty.usbmodem1101"}, "", "/dev/cu.usbmodem1101", nil},
		{"two receivers", []string{"/dev/ttyACM0", "/dev/ttyACM1"}, "", "", ErrAmbiguousPort},
		{"nothing known", []string{"/dev/ttyS0", "/dev/ttyS1"}, "", "", ErrNoPort},
		{"no ports", nil, "", "", ErrNoPort},
		{"by name", []string{"/dev/ttyS0", "/dev/ttyUSB0"}, "USB0", "/dev/ttyUSB0", nil},
		{"mac twin ignored", []string{"/dev/cu.usbmodem1101", "/dev/tty.usbmodem1101"}, "usbmodem1101", "/dev/cu.usbmodem1101", nil},
		{"windows", []string{"COM1", "COM3"}, "COM3", "COM3", nil},
		{"name ambiguous", []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, "USB", "", ErrAmbiguousPort},
		{"name missing", []string{"/dev/ttyS0"}, "ACM0", "", ErrNoPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPort(tt.ports, tt.wanted)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SelectPort() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectPort() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectPort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := SerialMode(config.SerialConfig{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if mode.BaudRate != 115200 || mode.DataBits != 8 || mode.StopBits != serial.OneStopBit || mode.Parity != serial.NoParity {
		t.Errorf("unexpected mode %+v", mode)
	}

	mode, err = SerialMode(config.SerialConfig{StopBits: 2, Parity: "EVEN"})
	if err != nil {
		t.Fatal(err)
	}
	if mode.BaudRate != 115200 || mode.StopBits != serial.TwoStopBits || mode.Parity != serial.EvenParity {
		t.Errorf("unexpected mode %+v", mode)
	}

	if _, err := SerialMode(config.SerialConfig{StopBits: 3}); err == nil {
		t.Error("expected stop bits error")
	}
	if _, err := SerialMode(config.SerialConfig{Parity: "odd-ish"}); err == nil {
		t.Error("expected parity error")
	}
}

// fakePort replays chunks, then behaves like a port whose read times out
type fakePort struct {
	serial.Port
	mutex   sync.Mutex
	chunks  [][]byte
	written bytes.Buffer
	timeout time.Duration
	closed  bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return 0, errors.New("port closed")
	}
	if len(p.chunks) > 0 {
		n := copy(buf, p.chunks[0])
		p.chunks = p.chunks[1:]
		p.mutex.Unlock()
		return n, nil
	}
	p.mutex.Unlock()
	time.Sleep(5 * time.Millisecond)
	return 0, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.written.Write(data)
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) Drain() error { return nil }

func (p *fakePort) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	return nil
}

func TestSerialSourceRun(t *testing.T) {
	port := &fakePort{chunks: [][]byte{{0x41, 0x42}, {0x43, 0x04}}}
	var openedName string
	var openedMode *serial.Mode

	src := NewSerialSource(config.SerialConfig{BaudRate: 115200, DataBits: 8, StopBits: 1, ReadTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t)).
		WithPorts(
			func() ([]string, error) { return []string{"/dev/ttyS0", "/dev/ttyACM0"}, nil },
			func(name string, mode *serial.Mode) (serial.Port, error) {
				openedName, openedMode = name, mode
				return port, nil
			},
		)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	sink.waitFor(t, []byte{0x41, 0x42, 0x43, 0x04})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if openedName != "/dev/ttyACM0" || src.Name() != "/dev/ttyACM0" {
		t.Errorf("opened %q, name %q", openedName, src.Name())
	}
	if openedMode.BaudRate != 115200 || port.timeout != 50*time.Millisecond {
		t.Errorf("mode %+v timeout %v", openedMode, port.timeout)
	}
	if !port.closed {
		t.Error("port not closed")
	}
	stats := src.Stats()
	if stats.BytesRead != 4 || stats.ChunkCount != 2 || stats.IsConnected {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestSerialSourceNameWhileRunning(t *testing.T) {
	src := NewSerialSource(config.SerialConfig{ReadTimeout: 10 * time.Millisecond}, nil).WithPorts(
		func() ([]string, error) { return []string{"/dev/ttyACM3"}, nil },
		func(string, *serial.Mode) (serial.Port, error) { return &fakePort{}, nil },
	)
	if got := src.Name(); got != "serial (auto-detect)" {
		t.Errorf("Name() before Run = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, &recordingSink{}) }()

	deadline := time.Now().Add(2 * time.Second)
	for src.Name() != "/dev/ttyACM3" {
		if time.Now().After(deadline) {
			t.Fatalf("Name() = %q, port never selected", src.Name())
		}
		_ = src.Stats()
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestSerialSourceNoPort(t *testing.T) {
	src := NewSerialSource(config.SerialConfig{Port: "ACM7"}, nil).WithPorts(
		func() ([]string, error) { return []string{"/dev/ttyACM0"}, nil },
		nil,
	)
	err := src.Run(context.Background(), &recordingSink{})
	if !errors.Is(err, ErrNoPort) {
		t.Fatalf("Run() error = %v, want ErrNoPort", err)
	}
}

func TestSerialTransmitterWaitReady(t *testing.T) {
	port := &fakePort{chunks: [][]byte{[]byte("boot"), []byte("..$")}}
	tx := NewSerialTransmitter(&OpenedPort{Port: port, name: "/dev/ttyACM0"}, '$', zaptest.NewLogger(t))

	ready, err := tx.WaitReady(context.Background(), time.Second)
	if err != nil || !ready {
		t.Fatalf("WaitReady() = %v, %v", ready, err)
	}
	if _, err := tx.Write([]byte{0x41, 0x04}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(port.written.Bytes(), []byte{0x41, 0x04}) {
		t.Errorf("written % X", port.written.Bytes())
	}

	silent := NewSerialTransmitter(&OpenedPort{Port: &fakePort{}, name: "x"}, '$', nil)
	ready, err = silent.WaitReady(context.Background(), 30*time.Millisecond)
	if err != nil || ready {
		t.Errorf("WaitReady() on a silent port = %v, %v", ready, err)
	}
}

func TestConsoleTransmitter(t *testing.T) {
	var out bytes.Buffer
	tx := NewConsoleTransmitter(&out)
	if ready, _ := tx.WaitReady(context.Background(), 0); !ready {
		t.Error("console must be ready")
	}
	tx.Write([]byte("AB\x04"))
	if err := tx.Flush(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "AB\x04" {
		t.Errorf("out = %q", out.String())
	}
}

func TestStdinSourceReadsUntilEOF(t *testing.T) {
	in := bytes.NewReader([]byte{0x1B, 0xFD, 0x41, 0x0A, 0x42})
	src := NewStdinSource(in, zaptest.NewLogger(t))
	sink := &recordingSink{}
	if err := src.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(sink.bytes(), []byte{0x1B, 0xFD, 0x41, 0x0A, 0x42}) {
		t.Errorf("received % X", sink.bytes())
	}
	if src.Name() != "StdIn" {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	doc := "title: t\nhp82240PrintData:\n  - text: \"AB\"\n  - linefeed: hp\n  - esc: doublewide\n  - text: \"C\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, nil, zaptest.NewLogger(t))
	sink := &recordingSink{}
	if err := src.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []byte{0x41, 0x42, 0x04, 0x1B, 0xFD, 0x43}
	if !bytes.Equal(sink.bytes(), want) {
		t.Errorf("received % X, want % X", sink.bytes(), want)
	}
	if sink.calls != 1 {
		t.Errorf("expected one batch, got %d", sink.calls)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), nil, nil)
	if err := src.Run(context.Background(), &recordingSink{}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestTCPSourceAcceptsJobs(t *testing.T) {
	src := NewTCPSource("127.0.0.1:0", time.Second, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := src.Listen(ctx); err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	for _, job := range [][]byte{{0x41, 0x04}, {0x42, 0x0A}} {
		conn, err := net.Dial("tcp", src.Addr())
		if err != nil {
			t.Fatal(err)
		}
		conn.Write(job)
		conn.Close()
	}
	sink.waitFor(t, []byte{0x41, 0x04, 0x42, 0x0A})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestSpoolSource(t *testing.T) {
	dir := t.TempDir()
	// A job waiting before the source starts is printed first
	if err := os.WriteFile(filepath.Join(dir, "a.raw"), []byte{0x41, 0x04}, 0o644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)

	src := NewSpoolSource(dir, 20*time.Millisecond, nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	sink.waitFor(t, []byte{0x41, 0x04})

	doc := "hp82240PrintData:\n  - text: \"B\"\n  - linefeed: lf\n"
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	sink.waitFor(t, []byte{0x41, 0x04, 0x42, 0x0A})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, name := range []string{"a.raw", "b.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, PrintedDir, name)); err != nil {
			t.Errorf("%s not moved to the printed directory: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("unrelated files must stay")
	}
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{
		Input:  config.InputConfig{Source: config.SourceTCP, TCPAddr: ":9100", Charset: "HP82240A"},
		Serial: config.SerialConfig{StopBits: 1},
	}
	src, err := NewSource(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*TCPSource); !ok {
		t.Errorf("NewSource() = %T", src)
	}

	cfg.Input.Source = config.SourceFile
	if _, err := NewSource(cfg, nil); err == nil {
		t.Error("file source without a file must fail")
	}

	cfg.Input.Source = config.SourceSerial
	cfg.Serial.StopBits = 5
	if _, err := NewSource(cfg, nil); err == nil {
		t.Error("bad stop bits must fail")
	}

	cfg.Serial.StopBits = 1
	cfg.Input.Charset = "ebcdic"
	if _, err := NewSource(cfg, nil); err == nil {
		t.Error("unknown charset must fail")
	}
}

func TestIdleSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (IdleSource{}).Run(ctx, &recordingSink{}); err != nil {
		t.Fatal(err)
	}
}

func TestLookupBoard(t *testing.T) {
	board, ok := LookupBoard("2341", "0043")
	if !ok || board.Vendor != "Arduino" || board.Model != "Uno R3" || !board.Receiver {
		t.Errorf("Arduino Uno = %+v, %v", board, ok)
	}

	board, ok = LookupBoard("10C4", "9999")
	if !ok || board.Vendor != "Silicon Labs" || board.Model != "" || board.Receiver {
		t.Errorf("unknown CP210x product = %+v, %v", board, ok)
	}

	if _, ok := LookupBoard("dead", "beef"); ok {
		t.Error("unknown vendor found")
	}
}
