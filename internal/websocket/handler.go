package websocket

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"breadvan-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mobile apps send no Origin; browsers are limited by CORS on the API
		return true
	},
}

// HandleWebSocket upgrades an authenticated request. Browsers cannot set
// headers on WebSocket requests, so the token may come as ?token=.
func HandleWebSocket(hub *Hub, auth *middleware.Authenticator, tracker LocationTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenString = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if tokenString == "" {
			log.Println("❌ No token for WebSocket connection")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			log.Printf("❌ Invalid WebSocket token: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(claims.UserID, claims.Role, claims.AreaID, conn, hub, tracker)
		if !hub.Register(client) {
			log.Printf("⚠️  Hub stopped, dropping WebSocket for user: %s", claims.UserID)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ WebSocket connection established for user: %s (%s)", claims.Username, claims.UserID)
	}
}
