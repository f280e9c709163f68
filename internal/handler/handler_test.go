package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"hp82240-service/internal/config"
	"hp82240-service/internal/model"
	"hp82240-service/internal/paper"
	"hp82240-service/internal/protocol"
	"hp82240-service/internal/repository"
	"hp82240-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "hp82240", Version: "test"},
		Printer: config.PrinterConfig{Model: config.Model82240B},
		Input:   config.InputConfig{Source: config.SourceNone, Charset: "HP82240A"},
		Paper:   config.PaperConfig{Scale: 1},
		Server:  config.ServerConfig{MaxBodyBytes: 64},
	}
}

type testEnv struct {
	router  *gin.Engine
	printer *service.PrinterService
	bus     *service.EventBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	bus := service.NewEventBus(logger)
	printer, err := service.NewPrinterService(cfg, paper.NewRoll(0), bus, nil, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	NewHealthHandler(nil, printer, cfg, logger).RegisterRoutes(&router.RouterGroup)
	api := router.Group("/api/v1")
	NewPrinterHandler(printer, cfg, logger).RegisterRoutes(api)
	NewWebSocketHandler(printer, bus, nil, logger).RegisterRoutes(router.Group("/ws"))
	return &testEnv{router: router, printer: printer, bus: bus}
}

func (e *testEnv) do(method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewReader(body)))
	return w
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response %q: %v", w.Body.String(), err)
	}
	if data != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("invalid data %s: %v", resp.Data, err)
		}
	}
	return resp
}

func TestPrintRaw(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/print", []byte("HELLO\n"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var result service.PrintResult
	decode(t, w, &result)
	if result.BytesAccepted != 6 || result.LinesPrinted != 1 {
		t.Errorf("result = %+v", result)
	}
	if got := env.printer.PaperText(); got != "HELLO\n" {
		t.Errorf("paper = %q", got)
	}
}

func TestPrintRejectsBadBodies(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodPost, "/api/v1/print", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d", w.Code)
	}

	w := env.do(http.MethodPost, "/api/v1/print", bytes.Repeat([]byte{'A'}, 65))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body status = %d", w.Code)
	}
	if resp := decode(t, w, nil); resp.Error == nil || resp.Error.Code != "PAYLOAD_TOO_LARGE" {
		t.Errorf("unexpected error %+v", resp.Error)
	}
	if env.printer.Printed() != 0 || env.printer.Flags().Pending != "" {
		t.Error("rejected body reached the printer")
	}
}

func TestPrintFile(t *testing.T) {
	env := newTestEnv(t)

	doc := "hp82240PrintData:\n  - text: \"OK\"\n  - linefeed: hp\n"
	w := env.do(http.MethodPost, "/api/v1/print/file", []byte(doc))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := env.printer.PaperText(); got != "OK\n" {
		t.Errorf("paper = %q", got)
	}

	if w := env.do(http.MethodPost, "/api/v1/print/file", []byte("title: nothing\n")); w.Code != http.StatusBadRequest {
		t.Errorf("empty file status = %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/api/v1/print/file", []byte("hp82240PrintData: [")); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("broken file status = %d", w.Code)
	}
}

func TestGetPaper(t *testing.T) {
	env := newTestEnv(t)
	env.printer.Print([]byte("ONE\nTWO\nTHREE\n"))

	var all struct {
		Count int          `json:"count"`
		Lines []paper.Line `json:"lines"`
	}
	decode(t, env.do(http.MethodGet, "/api/v1/paper", nil), &all)
	if all.Count != 3 || all.Lines[2].Text != "THREE" {
		t.Errorf("paper = %+v", all)
	}

	var since struct {
		Count int          `json:"count"`
		Lines []paper.Line `json:"lines"`
	}
	decode(t, env.do(http.MethodGet, "/api/v1/paper?since=2", nil), &since)
	if since.Count != 1 || since.Lines[0].Number != 3 {
		t.Errorf("since = %+v", since)
	}
	if len(since.Lines[0].Columns) != 166 {
		t.Errorf("columns = %d, want 166", len(since.Lines[0].Columns))
	}

	if w := env.do(http.MethodGet, "/api/v1/paper?since=x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid since status = %d", w.Code)
	}

	w := env.do(http.MethodGet, "/api/v1/paper/text", nil)
	if w.Body.String() != "ONE\nTWO\nTHREE\n" {
		t.Errorf("text = %q", w.Body.String())
	}
}

func TestGetPaperImage(t *testing.T) {
	env := newTestEnv(t)
	env.printer.Print([]byte("PIXELS\n"))

	w := env.do(http.MethodGet, "/api/v1/paper/image?scale=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	wantWidth := 2 * (paper.PadLeft + 166 + paper.PadRight)
	if img.Bounds().Dx() != wantWidth {
		t.Errorf("width = %d, want %d", img.Bounds().Dx(), wantWidth)
	}

	if w := env.do(http.MethodGet, "/api/v1/paper/image?scale=9", nil); w.Code != http.StatusBadRequest {
		t.Errorf("scale 9 status = %d", w.Code)
	}
}

func TestClearPaper(t *testing.T) {
	env := newTestEnv(t)
	env.printer.Print([]byte("GONE\n"))

	if w := env.do(http.MethodDelete, "/api/v1/paper", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if env.printer.PaperText() != "" {
		t.Error("paper not cleared")
	}
}

func TestPrinterControl(t *testing.T) {
	env := newTestEnv(t)

	var result service.PrintResult
	decode(t, env.do(http.MethodPost, "/api/v1/printer/self-test", nil), &result)
	if result.LinesPrinted != 14 {
		t.Errorf("self-test printed %d lines, want 14", result.LinesPrinted)
	}

	env.printer.Print([]byte{0x1B, 0xFD, 'X'})
	decode(t, env.do(http.MethodPost, "/api/v1/printer/reset", nil), &result)
	if result.Flags.DoubleWide {
		t.Error("reset kept double wide")
	}

	env.printer.Print([]byte("PENDING"))
	var cycled struct {
		Flags struct {
			Pending string `json:"pending_text"`
			Column  int    `json:"column"`
		} `json:"flags"`
	}
	decode(t, env.do(http.MethodPost, "/api/v1/printer/power-cycle", nil), &cycled)
	if cycled.Flags.Pending != "" || cycled.Flags.Column != 0 {
		t.Errorf("power cycle kept state %+v", cycled.Flags)
	}

	var status service.PrinterStatus
	decode(t, env.do(http.MethodGet, "/api/v1/printer", nil), &status)
	if status.LinesPrinted != 0 || status.LinesOnRoll != 14 || status.Model != config.Model82240B {
		t.Errorf("status after power cycle = %+v", status)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if _, ok := health.Checks["database"]; ok {
		t.Error("database checked without an archive")
	}
	if health.Checks["printer"].Status != "healthy" || health.Service != "hp82240" {
		t.Errorf("health = %+v", health)
	}

	if w := env.do(http.MethodGet, "/health/db", nil); w.Code != http.StatusNotFound {
		t.Errorf("/health/db status = %d, want 404", w.Code)
	}
	if w := env.do(http.MethodGet, "/ready", nil); w.Code != http.StatusOK {
		t.Errorf("/ready status = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/live", nil); w.Code != http.StatusOK {
		t.Errorf("/live status = %d", w.Code)
	}
}

func TestScanPorts(t *testing.T) {
	logger := zaptest.NewLogger(t)
	var asked string
	scan := func(wanted string) ([]protocol.PortInfo, error) {
		asked = wanted
		return []protocol.PortInfo{{Name: "/dev/ttyACM0", IsUSB: true, Selected: true}}, nil
	}

	router := gin.New()
	NewPortsHandler(scan, "auto", logger).RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports", nil))
	var data struct {
		Found int                 `json:"ports_found"`
		Ports []protocol.PortInfo `json:"ports"`
	}
	decode(t, w, &data)
	if asked != "auto" || data.Found != 1 || !data.Ports[0].Selected {
		t.Errorf("asked %q, got %+v", asked, data)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports?name=usbserial", nil))
	if asked != "usbserial" {
		t.Errorf("name query ignored, asked %q", asked)
	}

	failing := gin.New()
	NewPortsHandler(func(string) ([]protocol.PortInfo, error) {
		return nil, errors.New("no enumerator")
	}, "auto", logger).RegisterRoutes(failing.Group("/api/v1"))
	w = httptest.NewRecorder()
	failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ports", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("failing scan status = %d", w.Code)
	}
}

type fakeRepo struct {
	sessions map[uuid.UUID]*model.PrintSession
	lines    []*model.ArchivedLine
	filter   *repository.LineFilter
}

func (r *fakeRepo) CreateSession(ctx context.Context, s *model.PrintSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeRepo) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return nil
}

func (r *fakeRepo) GetSession(ctx context.Context, id uuid.UUID) (*model.PrintSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeRepo) ListSessions(ctx context.Context, filter *repository.SessionFilter) ([]*model.PrintSession, error) {
	var out []*model.PrintSession
	for _, s := range r.sessions {
		if filter.Source == nil || *filter.Source == s.Source {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) AddLine(ctx context.Context, line *model.ArchivedLine) error {
	r.lines = append(r.lines, line)
	return nil
}

func (r *fakeRepo) ListLines(ctx context.Context, id uuid.UUID, filter *repository.LineFilter) ([]*model.ArchivedLine, error) {
	r.filter = filter
	var out []*model.ArchivedLine
	for _, l := range r.lines {
		if l.SessionID == id && l.LineNo > filter.AfterLine {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestArchiveHandler(t *testing.T) {
	session := model.NewPrintSession("StdIn", config.Model82240B)
	repo := &fakeRepo{sessions: map[uuid.UUID]*model.PrintSession{session.ID: session}}
	for i := 1; i <= 3; i++ {
		repo.AddLine(context.Background(), &model.ArchivedLine{SessionID: session.ID, LineNo: i})
	}

	router := gin.New()
	NewArchiveHandler(repo, zaptest.NewLogger(t)).RegisterRoutes(router.Group("/api/v1"))
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	var list struct {
		Count int `json:"count"`
	}
	decode(t, get("/api/v1/archive/sessions?source=StdIn"), &list)
	if list.Count != 1 {
		t.Errorf("sessions = %d", list.Count)
	}
	if w := get("/api/v1/archive/sessions?start_date=yesterday"); w.Code != http.StatusBadRequest {
		t.Errorf("bad start_date status = %d", w.Code)
	}

	base := "/api/v1/archive/sessions/" + session.ID.String()
	if w := get(base); w.Code != http.StatusOK {
		t.Errorf("get session status = %d", w.Code)
	}
	if w := get("/api/v1/archive/sessions/" + uuid.New().String()); w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", w.Code)
	}
	if w := get("/api/v1/archive/sessions/not-a-uuid"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}

	var lines struct {
		Count int `json:"count"`
	}
	decode(t, get(base+"/lines?after=1&q=HP"), &lines)
	if lines.Count != 2 {
		t.Errorf("lines = %d, want 2", lines.Count)
	}
	if repo.filter.TextSearch == nil || *repo.filter.TextSearch != "HP" {
		t.Errorf("text search not passed: %+v", repo.filter)
	}
}

func TestPaperWebSocket(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.bus.Start(ctx)

	env.printer.Print([]byte("FIRST\n"))

	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/paper"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial struct {
		Type string `json:"type"`
		Data struct {
			Lines []paper.Line `json:"lines"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatal(err)
	}
	if initial.Type != "initial_status" || len(initial.Data.Lines) != 1 {
		t.Fatalf("initial message = %+v", initial)
	}

	env.printer.Print([]byte("SECOND\n"))
	var line struct {
		Type string                `json:"type"`
		Data model.LinePrintedData `json:"data"`
	}
	if err := conn.ReadJSON(&line); err != nil {
		t.Fatal(err)
	}
	if line.Type != "line" || line.Data.Text != "SECOND" || line.Data.Number != 2 {
		t.Errorf("line message = %+v", line)
	}

	if err := conn.WriteJSON(WebSocketMessage{Type: "print", Data: map[string]string{"hex": "48490A"}, RequestID: "r1"}); err != nil {
		t.Fatal(err)
	}
	// The printed line and the print result both arrive, in either order.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		seen[msg.Type] = true
	}
	if !seen["line"] || !seen["print_result"] {
		t.Errorf("messages after print = %v", seen)
	}

	if err := conn.WriteJSON(WebSocketMessage{Type: "ping", RequestID: "r2"}); err != nil {
		t.Fatal(err)
	}
	var pong WebSocketMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != "pong" || pong.RequestID != "r2" {
		t.Errorf("pong = %+v", pong)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://ok.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws/paper", nil)
	req.Header.Set("Origin", "http://ok.example")
	if !check(req) {
		t.Error("listed origin rejected")
	}
	req.Header.Set("Origin", "http://evil.example")
	if check(req) {
		t.Error("unlisted origin accepted")
	}
	if !originChecker(nil)(req) {
		t.Error("empty list should accept any origin")
	}
}
