package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nethttp "net/http"

	"github.com/gorilla/websocket"
	"github.com/restartfu/corepanel/internal/app"
	"github.com/restartfu/corepanel/internal/domain"
)

type staticCores []domain.CoreState

func (s staticCores) Snapshot() []domain.CoreState { return s }

func newTestServer(t *testing.T) (*Server, nethttp.Handler, context.CancelFunc) {
	t.Helper()
	identity := domain.HostIdentity{
		CPUModel:    "AMD Ryzen 7 1800X Eight-Core Processor",
		IsAMDVendor: true,
		OSSummary:   "Debian 12 Bookworm\nKernel 6.1.0\nDriver ACPI\nTurbo Boost supported",
	}
	cores := staticCores{
		{Index: 0, FrequencyLabel: "3.60 GHz", GovernorSymbol: "\uf197", IsOnline: true, Status: domain.CoreOnline},
		{Index: 1, FrequencyLabel: "---", GovernorSymbol: "\uf06c", Status: domain.CoreOffline},
	}
	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer(ctx, app.NewService(identity, cores), 20*time.Millisecond, log.New(io.Discard, "", 0))
	e := NewEcho()
	e.Logger.SetOutput(io.Discard)
	server.Register(e)
	return server, e, cancel
}

func get(t *testing.T, h nethttp.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	_, h, cancel := newTestServer(t)
	defer cancel()

	rec := get(t, h, "/health")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("body = %+v", body)
	}
}

func TestIdentity(t *testing.T) {
	_, h, cancel := newTestServer(t)
	defer cancel()

	var body identityResponse
	if err := json.Unmarshal(get(t, h, "/api/identity").Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.IsAMDVendor || body.CPUModel != "AMD Ryzen 7 1800X Eight-Core Processor" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.SummaryLines) != 4 || body.SummaryLines[2] != "Driver ACPI" {
		t.Fatalf("summary lines = %q", body.SummaryLines)
	}
}

func TestCores(t *testing.T) {
	_, h, cancel := newTestServer(t)
	defer cancel()

	var body []coreResponse
	if err := json.Unmarshal(get(t, h, "/api/cores").Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len = %d", len(body))
	}
	if body[0].Label != "CPU0" || body[0].Status != "online" || !body[0].IsOnline {
		t.Fatalf("core 0 = %+v", body[0])
	}
	if body[1].Status != "offline" || body[1].IsOnline || body[1].GovernorSymbol != "\uf06c" {
		t.Fatalf("core 1 = %+v", body[1])
	}
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	_, h, cancel := newTestServer(t)
	defer cancel()

	rec := get(t, h, "/api/nope")
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("body = %q, err = %v", rec.Body.String(), err)
	}
}

func TestStreamPanel(t *testing.T) {
	_, h, cancel := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var panel panelResponse
		if err := conn.ReadJSON(&panel); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if len(panel.Cores) != 2 || panel.Identity.CPUModel == "" {
			t.Fatalf("panel %d = %+v", i, panel)
		}
	}

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
