package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaekwang-park/homework-api/internal/dashboard"
	"github.com/jaekwang-park/homework-api/internal/engine"
	"github.com/jaekwang-park/homework-api/internal/feed"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/service"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePongWait     = 60 * time.Second
	livePingPeriod   = livePongWait * 9 / 10
	liveMaxMessage   = 64 << 10
)

var errInvalidMessage = fmt.Errorf("%w: unrecognized message", service.ErrValidation)

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", service.ErrValidation, err)
}

// Subscriber opens snapshot subscriptions; *feed.Hub implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, ownerID string) (*feed.Subscription, error)
	Subscribers(ownerID string) int
}

// LiveHandler upgrades GET /api/v1/live to a WebSocket that streams dashboard
// frames for the authenticated user and accepts dashboard commands.
type LiveHandler struct {
	feed     Subscriber
	store    dashboard.Store
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewLiveHandler(feed Subscriber, store dashboard.Store, allowedOrigins []string, now func() time.Time) *LiveHandler {
	if now == nil {
		now = time.Now
	}
	return &LiveHandler{
		feed:  feed,
		store: store,
		now:   now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// clientMessage is a command from the client. Which fields are read depends
// on Type.
type clientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	Search string `json:"search,omitempty"`
	Filter string `json:"filter,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Zone   string `json:"tz,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

func (m clientMessage) hasFields() bool {
	return m.Title != "" || m.Description != "" || m.Subject != "" || m.Priority != "" || m.DueDate != ""
}

type serverMessage struct {
	Type  string           `json:"type"`
	Data  *dashboard.Frame `json:"data,omitempty"`
	Error *ErrorBody       `json:"error,omitempty"`
}

type liveConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *liveConn) send(msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *liveConn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteTimeout))
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	loc, err := parseZone(r.URL.Query().Get(zoneParam))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(liveMaxMessage)
	// The server's read timeout still applies to the hijacked conn; pongs
	// keep pushing it forward.
	ws.SetReadDeadline(time.Now().Add(livePongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(livePongWait))
	})
	conn := &liveConn{ws: ws}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.feed.Subscribe(ctx, userID)
	if err != nil {
		slog.Error("failed to open snapshot subscription", "user_id", userID, "error", err)
		conn.send(errorMessage(err))
		return
	}
	defer sub.Close()

	slog.Info("live session connected", "user_id", userID, "sessions", h.feed.Subscribers(userID))
	session := dashboard.NewSession(userID, h.store)
	if loc != nil {
		session.SetLocation(loc)
	}
	notices := make(chan error, 8)

	go func() {
		defer cancel()
		h.readLoop(ctx, conn, session, notices)
	}()

	h.writeLoop(ctx, conn, sub, session, notices)
	slog.Info("live session disconnected", "user_id", userID)
}

// writeLoop is the only place frames are produced. It ends when the client
// goes away or the subscription closes.
func (h *LiveHandler) writeLoop(ctx context.Context, conn *liveConn, sub *feed.Subscription, session *dashboard.Session, notices <-chan error) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			if snap.Err != nil {
				if err := conn.send(errorMessage(service.ErrStoreOperation)); err != nil {
					return
				}
				continue
			}
			session.ApplySnapshot(snap.Assignments)
		case <-session.Changes():
			frame := session.Render(h.now())
			if err := conn.send(serverMessage{Type: "view", Data: &frame}); err != nil {
				slog.Debug("failed to send live frame", "user_id", session.OwnerID(), "error", err)
				return
			}
		case err := <-notices:
			if err := conn.send(errorMessage(err)); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) readLoop(ctx context.Context, conn *liveConn, session *dashboard.Session, notices chan<- error) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "user_id", session.OwnerID(), "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.notify(ctx, notices, errInvalidMessage)
			continue
		}
		if err := h.dispatch(ctx, session, msg); err != nil {
			h.notify(ctx, notices, err)
		}
	}
}

func (h *LiveHandler) notify(ctx context.Context, notices chan<- error, err error) {
	select {
	case notices <- err:
	case <-ctx.Done():
	}
}

func (h *LiveHandler) dispatch(ctx context.Context, session *dashboard.Session, msg clientMessage) error {
	switch msg.Type {
	case "view":
		filter, err := engine.ParseFilterBy(msg.Filter)
		if err != nil {
			return invalidInput(err)
		}
		sort, err := engine.ParseSortBy(msg.Sort)
		if err != nil {
			return invalidInput(err)
		}
		loc, err := parseZone(msg.Zone)
		if err != nil {
			return err
		}
		if loc != nil {
			session.SetLocation(loc)
		}
		session.SetView(msg.Search, filter, sort)
	case "toggle":
		return session.Toggle(ctx, msg.ID)
	case "edit":
		return session.BeginEdit(msg.ID)
	case "cancel":
		session.CancelEdit()
	case "save":
		if !msg.hasFields() {
			_, err := session.SaveDraft(ctx)
			return err
		}
		due, err := service.ParseDueDate(msg.DueDate)
		if err != nil {
			return err
		}
		_, err = session.Save(ctx, service.AssignmentInput{
			Title:       msg.Title,
			Description: msg.Description,
			Subject:     msg.Subject,
			Priority:    model.Priority(msg.Priority),
			DueDate:     due,
		})
		return err
	case "delete":
		return session.Delete(ctx, msg.ID)
	default:
		return errInvalidMessage
	}
	return nil
}

func errorMessage(err error) serverMessage {
	_, body := describeError(err)
	return serverMessage{Type: "error", Error: &body}
}
