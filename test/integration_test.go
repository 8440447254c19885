package test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"failly/auth"
	"failly/domain"
	"failly/domain/event"
	"failly/infrastructure/httpapi"
	"failly/infrastructure/ws"
	"failly/moderation"
	"failly/observability"
	"failly/repositories"
	"failly/runtime"
	"failly/runtime/workers"
	"failly/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type         string          `json:"type"`
	UserID       string          `json:"userId,omitempty"`
	RoomID       string          `json:"roomId,omitempty"`
	Text         string          `json:"text,omitempty"`
	Members      []domain.Member `json:"members,omitempty"`
	Announcement string          `json:"announcement,omitempty"`
	SenderID     string          `json:"senderId,omitempty"`
}

type harness struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	baseURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	userRepository := repositories.NewUserRepository(db, log)
	postRepository := repositories.NewPostRepository(db, log, nil)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	telemetryChan := make(chan event.Telemetry, 1024)
	engine := runtime.NewEngine(log, userRepository, moderator, telemetryChan)
	monitoring := observability.NewMonitoringManager(log)

	supervisor := workers.NewSupervisor(log, telemetryChan, 200*time.Millisecond)
	supervisor.Add(workers.NewTelemetryWorker(log, telemetryChan, []event.Handler{monitoring}))
	go supervisor.Run(context.Background())

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authService := services.NewAuthService(userRepository, tokens, log)
	postService := services.NewPostService(postRepository, engine, log)

	wsServer := ws.NewServer(log, engine, 64)
	apiServer := httpapi.NewServer(log, authService, postService, tokens, engine, monitoring)
	server := httptest.NewServer(apiServer.Router(wsServer))

	t.Cleanup(func() {
		server.Close()
		supervisor.Stop()
		_ = db.Close()
	})

	return &harness{
		t:       t,
		server:  server,
		client:  server.Client(),
		baseURL: server.URL,
	}
}

func (h *harness) postJSON(path, token string, body any) map[string]any {
	h.t.Helper()
	req := require.New(h.t)

	var buf bytes.Buffer
	req.NoError(json.NewEncoder(&buf).Encode(body))
	request, err := http.NewRequest(http.MethodPost, h.baseURL+path, &buf)
	req.NoError(err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := h.client.Do(request)
	req.NoError(err)
	defer response.Body.Close()
	req.Less(response.StatusCode, 300)

	var out map[string]any
	req.NoError(json.NewDecoder(response.Body).Decode(&out))
	return out
}

func (h *harness) signup(displayName string) (userID, token string) {
	h.t.Helper()
	out := h.postJSON("/auth/signup", "", map[string]string{
		"displayName": displayName,
		"password":    "hunter2hunter2",
	})
	return out["userId"].(string), out["token"].(string)
}

func (h *harness) stats() observability.Stats {
	h.t.Helper()
	req := require.New(h.t)
	response, err := h.client.Get(h.baseURL + "/debug/stats")
	req.NoError(err)
	defer response.Body.Close()
	var stats observability.Stats
	req.NoError(json.NewDecoder(response.Body).Decode(&stats))
	return stats
}

// connect dials the websocket endpoint and binds it to a user.
func (h *harness) connect(userID string) *websocket.Conn {
	h.t.Helper()
	req := require.New(h.t)
	wsURL := "ws" + strings.TrimPrefix(h.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	h.t.Cleanup(func() { _ = conn.Close() })

	req.NoError(conn.WriteJSON(frame{Type: "register", UserID: userID}))
	return conn
}

// waitEnqueued posts under the tag until the stats show the waiter,
// which also absorbs the race between the register frame and the post.
func (h *harness) waitEnqueued(token, tag string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		h.postJSON("/posts", token, map[string]string{"tag": tag, "content": "confession"})
		return h.stats().WaitingByTag[tag] == 1
	}, 5*time.Second, 100*time.Millisecond)
}

// readFrame skips frames until the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, wantType string) frame {
	t.Helper()
	req := require.New(t)
	req.NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		var f frame
		req.NoError(conn.ReadJSON(&f))
		if f.Type == wantType {
			return f
		}
	}
}

func Test_Scenario_Two_Confessions_One_Room(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	// Given alice and bob, both connected and registered
	aliceID, aliceToken := h.signup("Alice")
	bobID, bobToken := h.signup("Bob")
	aliceConn := h.connect(aliceID)
	bobConn := h.connect(bobID)

	// When alice confesses first and waits
	h.waitEnqueued(aliceToken, "burnt the rice")

	// And bob, provably registered, confesses the same failure
	h.waitEnqueued(bobToken, "bob warms up")
	h.postJSON("/posts", bobToken, map[string]string{
		"tag": "burnt the rice", "content": "same, the pan is dead",
	})

	// Then both sockets receive the same matched announcement
	aliceMatched := readFrame(t, aliceConn, "matched")
	bobMatched := readFrame(t, bobConn, "matched")
	req.Equal(aliceMatched.RoomID, bobMatched.RoomID)
	req.Len(aliceMatched.Members, 2)
	req.Contains(aliceMatched.Announcement, "Alice")
	req.Contains(aliceMatched.Announcement, "Bob")
	req.Contains(aliceMatched.Announcement, "burnt the rice")

	// When alice sends a message with a censored word into the room
	req.NoError(aliceConn.WriteJSON(frame{
		Type:   "send_message",
		RoomID: aliceMatched.RoomID,
		Text:   "my secret badger recipe",
	}))

	// Then both sides receive the sanitized text, alice as her own echo
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		message := readFrame(t, conn, "new_message")
		req.Equal(aliceMatched.RoomID, message.RoomID)
		req.Equal(aliceID, message.SenderID)
		req.Equal("my secret ****** recipe", message.Text)
	}

	// And the stats reflect the episode
	stats := h.stats()
	req.Equal(1, stats.Rooms)
	req.Zero(stats.WaitingByTag["burnt the rice"])
}

func Test_Scenario_Disconnect_Clears_The_Queue(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	aliceID, aliceToken := h.signup("Alice")
	bobID, bobToken := h.signup("Bob")
	aliceConn := h.connect(aliceID)
	bobConn := h.connect(bobID)

	// Given alice waiting under the tag, then closing her socket
	h.waitEnqueued(aliceToken, "burnt the rice")
	req.NoError(aliceConn.Close())

	// Her entry is evicted once the server notices the disconnect
	require.Eventually(t, func() bool {
		return h.stats().WaitingByTag["burnt the rice"] == 0
	}, 5*time.Second, 100*time.Millisecond)

	// When bob posts the same tag
	h.waitEnqueued(bobToken, "bob warms up")
	h.postJSON("/posts", bobToken, map[string]string{
		"tag": "burnt the rice", "content": "anyone there?",
	})

	// Then no room is created and bob waits alone
	req.Zero(h.stats().Rooms)
	req.Equal(1, h.stats().WaitingByTag["burnt the rice"])
	_ = bobConn
}
