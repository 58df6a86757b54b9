package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaekwang-park/homework-api/internal/dashboard"
	"github.com/jaekwang-park/homework-api/internal/feed"
	"github.com/jaekwang-park/homework-api/internal/http/handler"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/service"
)

type liveMessage struct {
	Type  string             `json:"type"`
	Data  *dashboard.Frame   `json:"data"`
	Error *handler.ErrorBody `json:"error"`
}

type liveClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newLiveServer(t *testing.T, repo *memAssignmentRepo, origins []string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := feed.NewHub(repo, feed.NewLocalNotifier(), logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := hub.Start(ctx); err != nil {
		t.Fatalf("start hub: %v", err)
	}

	svc := service.NewAssignmentService(hub)
	live := handler.NewLiveHandler(hub, svc, origins, func() time.Time { return fixedNow })
	srv := httptest.NewServer(withUser("user-1", live))
	t.Cleanup(srv.Close)
	return srv
}

func dialLive(t *testing.T, srv *httptest.Server) *liveClient {
	return dialLiveQuery(t, srv, "")
}

func dialLiveQuery(t *testing.T, srv *httptest.Server, query string) *liveClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &liveClient{t: t, conn: conn}
}

func (c *liveClient) send(msg map[string]any) {
	c.t.Helper()
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// until reads messages until match returns true.
func (c *liveClient) until(desc string, match func(liveMessage) bool) liveMessage {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.conn.SetReadDeadline(deadline)
		var msg liveMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.t.Fatalf("waiting for %s: %v", desc, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func (c *liveClient) frame(desc string, match func(dashboard.Frame) bool) dashboard.Frame {
	c.t.Helper()
	msg := c.until(desc, func(m liveMessage) bool {
		return m.Type == "view" && m.Data != nil && match(*m.Data)
	})
	return *msg.Data
}

func (c *liveClient) errorCode(desc string) string {
	c.t.Helper()
	msg := c.until(desc, func(m liveMessage) bool { return m.Type == "error" })
	return msg.Error.Code
}

func itemIDs(f dashboard.Frame) string {
	ids := make([]string, 0, len(f.Items))
	for _, it := range f.Items {
		ids = append(ids, it.Assignment.ID)
	}
	return strings.Join(ids, ",")
}

func itemCompleted(f dashboard.Frame, id string) (bool, bool) {
	for _, it := range f.Items {
		if it.Assignment.ID == id {
			return it.Completed, true
		}
	}
	return false, false
}

func TestLiveHandler_InitialFrame(t *testing.T) {
	srv := newLiveServer(t, newMemAssignmentRepo(homeworkSeed()...), nil)
	c := dialLive(t, srv)

	f := c.frame("initial frame", func(dashboard.Frame) bool { return true })
	if got := itemIDs(f); got != "a2,a3,a1" {
		t.Errorf("expected items a2,a3,a1, got %s", got)
	}
	if f.Stats.Total != 3 || f.Stats.Overdue != 1 {
		t.Errorf("unexpected stats: %+v", f.Stats)
	}
	if f.Form.State != "idle" {
		t.Errorf("expected idle form, got %q", f.Form.State)
	}
}

func TestLiveHandler_ViewChange(t *testing.T) {
	srv := newLiveServer(t, newMemAssignmentRepo(homeworkSeed()...), nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	c.send(map[string]any{"type": "view", "filter": "completed"})
	f := c.frame("completed view", func(f dashboard.Frame) bool { return f.View.Filter == "completed" })
	if got := itemIDs(f); got != "a3" {
		t.Errorf("expected only a3, got %s", got)
	}
	if f.Stats.Total != 3 {
		t.Errorf("stats should still cover all assignments, got %+v", f.Stats)
	}

	c.send(map[string]any{"type": "view", "sort": "alphabetical"})
	if code := c.errorCode("invalid sort"); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestLiveHandler_ToggleConfirmedBySnapshot(t *testing.T) {
	repo := newMemAssignmentRepo(homeworkSeed()...)
	srv := newLiveServer(t, repo, nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	c.send(map[string]any{"type": "toggle", "id": "a1"})
	f := c.frame("settled toggle", func(f dashboard.Frame) bool {
		done, _ := itemCompleted(f, "a1")
		return done && len(f.View.Pending) == 0
	})
	if f.Stats.CompletedCount != 2 {
		t.Errorf("expected 2 completed, got %d", f.Stats.CompletedCount)
	}
	if f.CompletionPercent == nil || *f.CompletionPercent != 67 {
		t.Errorf("expected 67%%, got %v", f.CompletionPercent)
	}
	if !repo.items["a1"].Completed {
		t.Error("store should hold the new completion")
	}
}

func TestLiveHandler_ToggleFailureRollsBack(t *testing.T) {
	repo := newMemAssignmentRepo(homeworkSeed()...)
	srv := newLiveServer(t, repo, nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	repo.setFailure(errors.New("write timeout"))
	c.send(map[string]any{"type": "toggle", "id": "a1"})

	var sawError, sawRollback bool
	c.until("error and rollback", func(m liveMessage) bool {
		switch m.Type {
		case "error":
			if m.Error.Code != "STORE_ERROR" {
				t.Errorf("expected STORE_ERROR, got %q", m.Error.Code)
			}
			sawError = true
		case "view":
			if done, _ := itemCompleted(*m.Data, "a1"); !done && len(m.Data.View.Pending) == 0 {
				sawRollback = true
			}
		}
		return sawError && sawRollback
	})
}

func TestLiveHandler_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		msg      map[string]any
		wantCode string
	}{
		{"unknown type", map[string]any{"type": "explode"}, "VALIDATION_ERROR"},
		{"toggle unknown id", map[string]any{"type": "toggle", "id": "nope"}, "NOT_FOUND"},
		{"edit unknown id", map[string]any{"type": "edit", "id": "nope"}, "NOT_FOUND"},
		{"save blank title", map[string]any{"type": "save", "title": " ", "due_date": "2025-03-12T17:00:00Z"}, "VALIDATION_ERROR"},
		{"save without due date", map[string]any{"type": "save", "title": "Quiz prep"}, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemAssignmentRepo(homeworkSeed()...)
			srv := newLiveServer(t, repo, nil)
			c := dialLive(t, srv)
			c.frame("initial frame", func(dashboard.Frame) bool { return true })
			before := repo.callCount()

			c.send(tt.msg)
			if code := c.errorCode(tt.name); code != tt.wantCode {
				t.Errorf("expected %s, got %q", tt.wantCode, code)
			}
			if repo.callCount() != before {
				t.Error("rejected command should not reach the store")
			}
		})
	}
}

func TestLiveHandler_EditAndSave(t *testing.T) {
	repo := newMemAssignmentRepo(homeworkSeed()...)
	srv := newLiveServer(t, repo, nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	c.send(map[string]any{"type": "edit", "id": "a1"})
	f := c.frame("editing", func(f dashboard.Frame) bool { return f.Form.State == "editing" })
	if f.Form.Target != "a1" || f.Form.Draft.Title != "Essay draft" {
		t.Errorf("unexpected form: %+v", f.Form)
	}

	c.send(map[string]any{
		"type":     "save",
		"title":    "Essay final",
		"subject":  "English",
		"priority": "high",
		"due_date": "2025-03-20T09:00:00Z",
	})
	c.frame("saved", func(f dashboard.Frame) bool {
		for _, it := range f.Items {
			if it.Assignment.ID == "a1" && it.Assignment.Title == "Essay final" {
				return f.Form.State == "idle"
			}
		}
		return false
	})
	if repo.items["a1"].Priority != "high" {
		t.Errorf("expected stored priority high, got %q", repo.items["a1"].Priority)
	}
}

func TestLiveHandler_SaveWithoutFieldsSavesDraft(t *testing.T) {
	repo := newMemAssignmentRepo(homeworkSeed()...)
	srv := newLiveServer(t, repo, nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	c.send(map[string]any{"type": "edit", "id": "a2"})
	c.frame("editing", func(f dashboard.Frame) bool { return f.Form.State == "editing" })
	before := repo.callCount()

	c.send(map[string]any{"type": "save"})
	c.frame("saved draft", func(f dashboard.Frame) bool { return f.Form.State == "idle" })
	if repo.callCount() == before {
		t.Error("expected the draft to be written to the store")
	}
	if got := repo.items["a2"]; got.Title != "Lab report" || got.Subject != "Chemistry" {
		t.Errorf("draft save should keep the loaded fields, got %+v", got)
	}
}

func TestLiveHandler_DueTodayFollowsZone(t *testing.T) {
	seed := model.Assignment{ID: "z1", OwnerID: "user-1", Title: "Reading log", DueDate: time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)}
	srv := newLiveServer(t, newMemAssignmentRepo(seed), nil)

	c := dialLiveQuery(t, srv, "?tz=America/Los_Angeles")
	f := c.frame("initial frame", func(f dashboard.Frame) bool { return f.Stats.Total == 1 })
	if f.Stats.DueToday != 1 || f.View.Zone != "America/Los_Angeles" {
		t.Errorf("expected one due today in Los Angeles, got %+v (zone %q)", f.Stats, f.View.Zone)
	}

	c.send(map[string]any{"type": "view", "tz": "Asia/Tokyo"})
	f = c.frame("tokyo view", func(f dashboard.Frame) bool { return f.View.Zone == "Asia/Tokyo" })
	if f.Stats.DueToday != 0 {
		t.Errorf("expected nothing due today in Tokyo, got %d", f.Stats.DueToday)
	}

	c.send(map[string]any{"type": "view", "tz": "Mars/Olympus_Mons"})
	if code := c.errorCode("unknown zone"); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestLiveHandler_RejectsUnknownZoneBeforeUpgrade(t *testing.T) {
	srv := newLiveServer(t, newMemAssignmentRepo(), nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?tz=Nowhere/Else"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail for an unknown zone")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %v", resp)
	}
}

func TestLiveHandler_CreateAndDelete(t *testing.T) {
	repo := newMemAssignmentRepo(homeworkSeed()...)
	srv := newLiveServer(t, repo, nil)
	c := dialLive(t, srv)
	c.frame("initial frame", func(dashboard.Frame) bool { return true })

	c.send(map[string]any{"type": "save", "title": "Quiz prep", "due_date": "2025-03-10T18:00:00Z"})
	f := c.frame("created", func(f dashboard.Frame) bool { return f.Stats.Total == 4 })
	if f.Stats.DueToday != 1 {
		t.Errorf("expected one due today, got %d", f.Stats.DueToday)
	}

	c.send(map[string]any{"type": "delete", "id": "a2"})
	f = c.frame("deleted", func(f dashboard.Frame) bool { return f.Stats.Total == 3 })
	if _, ok := itemCompleted(f, "a2"); ok {
		t.Error("deleted assignment should not be rendered")
	}
}

func TestLiveHandler_PushesWritesFromOtherConnections(t *testing.T) {
	srv := newLiveServer(t, newMemAssignmentRepo(homeworkSeed()...), nil)
	first := dialLive(t, srv)
	second := dialLive(t, srv)
	first.frame("initial frame", func(dashboard.Frame) bool { return true })
	second.frame("initial frame", func(dashboard.Frame) bool { return true })

	first.send(map[string]any{"type": "delete", "id": "a3"})
	f := second.frame("pushed snapshot", func(f dashboard.Frame) bool { return f.Stats.Total == 2 })
	if got := itemIDs(f); got != "a2,a1" {
		t.Errorf("expected a2,a1, got %s", got)
	}
}

func TestLiveHandler_RejectsForeignOrigin(t *testing.T) {
	srv := newLiveServer(t, newMemAssignmentRepo(), []string{"https://homework.example.com"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected handshake to fail for a foreign origin")
	}

	header = map[string][]string{"Origin": {"https://homework.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("expected allowed origin to connect: %v", err)
	}
	conn.Close()
}
