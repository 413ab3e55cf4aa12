package realtime

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/gymbro-app/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// EventOnlineUsers carries the full current online list, broadcast on every
// connect and disconnect.
const EventOnlineUsers = "online-users"

// Hub owns the presence registry and serves the realtime websocket endpoint.
type Hub struct {
	registry  *Registry
	upgrader  websocket.Upgrader
	jwtSecret string
}

// NewHub creates a new Hub
func NewHub(jwtSecret string) *Hub {
	return &Hub{
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		jwtSecret: jwtSecret,
	}
}

// Registry exposes the presence registry for injection into the dispatcher.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// HandleWS authenticates the handshake, registers the connection as the
// user's presence entry and serves it until disconnect. A failed handshake
// rejects the connection before any registration happens.
func (h *Hub) HandleWS(c echo.Context) error {
	userID, err := h.authenticate(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(conn)
	if replaced := h.registry.Register(userID, client); replaced != nil {
		// Last connection wins; the superseded handle gets no more deliveries.
		replaced.close()
	}
	go client.writePump()
	h.broadcastOnlineUsers()

	// Inbound frames are ignored; the read loop only detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	if h.registry.Unregister(userID, client) {
		h.broadcastOnlineUsers()
	}
	client.close()
	return nil
}

// authenticate extracts and verifies the bearer credential from the
// handshake: a `token` query parameter or an Authorization header.
func (h *Hub) authenticate(r *http.Request) (uint, error) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(header), "bearer ") {
			tokenString = header[len("bearer "):]
		}
	}
	if tokenString == "" {
		return 0, fmt.Errorf("no token provided")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}

func (h *Hub) broadcastOnlineUsers() {
	ids := h.registry.OnlineUserIDs()
	for _, client := range h.registry.snapshot() {
		client.Send(EventOnlineUsers, ids)
	}
}
