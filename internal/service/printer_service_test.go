package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"hp82240-service/internal/config"
	"hp82240-service/internal/model"
	"hp82240-service/internal/paper"
	"hp82240-service/internal/protocol"
)

func testConfig() *config.Config {
	return &config.Config{
		Printer: config.PrinterConfig{Model: config.Model82240B},
		Input:   config.InputConfig{Source: config.SourceNone, Charset: "HP82240A"},
	}
}

func newTestService(t *testing.T, bus *EventBus) *PrinterService {
	t.Helper()
	svc, err := NewPrinterService(testConfig(), paper.NewRoll(0), bus, nil, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestPrintReturnsLines(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Print([]byte("HELLO\nWOR"))
	if res.BytesAccepted != 9 || res.LinesPrinted != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if got := svc.PaperText(); got != "HELLO\n" {
		t.Errorf("paper = %q", got)
	}

	res = svc.Print([]byte("LD\x04"))
	if res.LinesPrinted != 1 || svc.PaperText() != "HELLO\nWORLD\n" {
		t.Errorf("result %+v, paper %q", res, svc.PaperText())
	}
	if svc.Printed() != 2 {
		t.Errorf("Printed() = %d", svc.Printed())
	}
}

func TestPrintFile(t *testing.T) {
	svc := newTestService(t, nil)
	doc := "title: t\nhp82240PrintData:\n  - esc: doublewide\n  - text: \"BIG\"\n  - linefeed: hp\n"
	res, err := svc.PrintFile(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.LinesPrinted != 1 || !res.Flags.DoubleWide {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := svc.PrintFile(strings.NewReader("title: empty\n")); !errors.Is(err, ErrEmptyJob) {
		t.Errorf("empty file error = %v", err)
	}
	if _, err := svc.PrintFile(strings.NewReader("hp82240PrintData: [")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestResetKeepsPendingLine(t *testing.T) {
	svc := newTestService(t, nil)
	svc.Print([]byte{0x1B, 0xFD, 'A'})

	res := svc.Reset()
	if res.Flags.DoubleWide || res.Flags.Column == 0 {
		t.Errorf("reset must clear modes but keep the column, got %+v", res.Flags)
	}
	svc.Print([]byte{'B', 0x0A})
	// The text starts over, the dots of the double-wide A stay on the line
	if got := svc.PaperText(); got != "B\n" {
		t.Errorf("paper = %q", got)
	}
	if line := svc.Paper()[0]; line.Columns[0] == 0 {
		t.Error("the dots printed before the reset were lost")
	}
}

func TestPowerCycleDropsPendingLine(t *testing.T) {
	svc := newTestService(t, nil)
	svc.Print([]byte("LOST"))

	flags := svc.PowerCycle()
	if flags.Column != 0 {
		t.Errorf("column = %d", flags.Column)
	}
	svc.Print([]byte("KEPT\n"))
	if got := svc.PaperText(); got != "KEPT\n" {
		t.Errorf("paper = %q", got)
	}
}

func TestPowerCycleKeepsPaperNumbering(t *testing.T) {
	svc := newTestService(t, nil)
	svc.Print([]byte("ONE\nTWO\n"))

	svc.PowerCycle()
	if svc.Printed() != 0 {
		t.Errorf("Printed() after power cycle = %d, want 0", svc.Printed())
	}
	svc.Print([]byte("THREE\n"))

	lines := svc.Paper()
	if len(lines) != 3 || lines[2].Number != 3 {
		t.Fatalf("paper numbering restarted: %+v", lines)
	}
	if since := svc.PaperSince(2); len(since) != 1 || since[0].Text != "THREE" {
		t.Errorf("PaperSince(2) = %+v", since)
	}
}

func TestUnknownCharsetRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Input.Charset = "EBCDIC"
	if _, err := NewPrinterService(cfg, paper.NewRoll(0), nil, nil, nil, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected an error for an unknown charset")
	}
}

func TestSelfTest(t *testing.T) {
	svc := newTestService(t, nil)
	res := svc.SelfTest()
	if res.LinesPrinted != 14 || len(svc.Paper()) != 14 {
		t.Errorf("self-test printed %d lines", res.LinesPrinted)
	}
}

func TestRenderAndClearPaper(t *testing.T) {
	svc := newTestService(t, nil)
	svc.Print([]byte("A\nB\n"))

	var buf bytes.Buffer
	if err := svc.RenderPaper(&buf, paper.RenderOptions{Scale: 1}); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dy() != 2*8+2*paper.PadTopBottom {
		t.Errorf("image height = %d", img.Bounds().Dy())
	}

	svc.ClearPaper()
	if len(svc.Paper()) != 0 {
		t.Error("paper not cleared")
	}
	svc.Print([]byte("C\n"))
	if got := svc.PaperSince(2); len(got) != 1 || got[0].Text != "C" {
		t.Errorf("PaperSince(2) = %+v", got)
	}
}

func TestLinesArePublished(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewEventBus(zaptest.NewLogger(t))
	go bus.Start(ctx)
	id, events := bus.Subscribe()
	defer bus.Unsubscribe(id)

	svc := newTestService(t, bus)
	svc.Print([]byte("PUB\n"))

	select {
	case event := <-events:
		if event.Type != model.EventLinePrinted {
			t.Fatalf("event type = %s", event.Type)
		}
		data, ok := event.Data.(model.LinePrintedData)
		if !ok || data.Text != "PUB" || len(data.Columns) != 166 {
			t.Errorf("unexpected data %+v", event.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRunSource(t *testing.T) {
	svc := newTestService(t, nil)
	src := protocol.NewStdinSource(strings.NewReader("FROM STDIN\n"), zaptest.NewLogger(t))

	if err := svc.RunSource(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	if got := svc.PaperText(); got != "FROM STDIN\n" {
		t.Errorf("paper = %q", got)
	}

	status := svc.Status()
	if status.Source != "StdIn" || status.SourceActive || status.LinesPrinted != 1 || status.LinesOnRoll != 1 {
		t.Errorf("unexpected status %+v", status)
	}
	if status.SourceStats == nil || status.SourceStats.BytesRead != 11 {
		t.Errorf("unexpected source stats %+v", status.SourceStats)
	}
	if !svc.SourceHealthy() {
		t.Error("source must be healthy")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	id, events := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatal("subscriber not registered")
	}
	bus.Unsubscribe(id)
	if _, ok := <-events; ok {
		t.Error("channel must be closed")
	}
	bus.Unsubscribe(id)
	if bus.SubscriberCount() != 0 {
		t.Error("subscriber not removed")
	}
}
