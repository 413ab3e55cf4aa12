package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/gymbro-app/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(testSecret)
	e := echo.New()
	e.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JwtCustomClaims{UserID: userID})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func dialUser(t *testing.T, wsURL string, userID uint) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+signToken(t, userID), nil)
	if err != nil {
		t.Fatalf("dial user %d: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForOnline reads broadcasts until one carries exactly the wanted user
// set. Broadcasts for intermediate states may arrive first.
func waitForOnline(t *testing.T, conn *websocket.Conn, want ...uint) {
	t.Helper()
	wantSet := make(map[uint]bool, len(want))
	for _, id := range want {
		wantSet[id] = true
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var env struct {
			Event string `json:"event"`
			Data  []uint `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for online users %v: %v", want, err)
		}
		if env.Event != EventOnlineUsers {
			continue
		}
		if len(env.Data) != len(wantSet) {
			continue
		}
		match := true
		for _, id := range env.Data {
			if !wantSet[id] {
				match = false
				break
			}
		}
		if match {
			return
		}
	}
}

func TestHandleWSRejectsBadToken(t *testing.T) {
	t.Parallel()

	hub, wsURL := newHubServer(t)

	for _, url := range []string{wsURL, wsURL + "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Fatalf("dial %q succeeded, want handshake rejection", url)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("dial %q status = %v, want 401", url, resp)
		}
	}
	if ids := hub.Registry().OnlineUserIDs(); len(ids) != 0 {
		t.Errorf("OnlineUserIDs = %v after rejected handshakes, want empty", ids)
	}
}

func TestHandleWSBroadcastsOnConnect(t *testing.T) {
	t.Parallel()

	hub, wsURL := newHubServer(t)

	connA := dialUser(t, wsURL, 1)
	waitForOnline(t, connA, 1)

	if _, ok := hub.Registry().Lookup(1); !ok {
		t.Fatal("user 1 not registered after connect")
	}

	connB := dialUser(t, wsURL, 2)
	waitForOnline(t, connB, 1, 2)
	// The already-connected user hears about the newcomer too.
	waitForOnline(t, connA, 1, 2)
}

func TestHandleWSBroadcastsOnDisconnect(t *testing.T) {
	t.Parallel()

	hub, wsURL := newHubServer(t)

	connA := dialUser(t, wsURL, 1)
	waitForOnline(t, connA, 1)
	connB := dialUser(t, wsURL, 2)
	waitForOnline(t, connB, 1, 2)

	connA.Close()

	// The survivor sees the shrunken list once the server notices.
	waitForOnline(t, connB, 2)

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, ok := hub.Registry().Lookup(1); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("user 1 still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
