// internal/handlers/stream.go
package handlers

import (
	"net/http"

	"cardio-wsi-back/internal/middleware"
	ws "cardio-wsi-back/internal/websocket"

	"github.com/fasthttp/websocket"
	"github.com/gin-gonic/gin"
)

// StreamAnalysis upgrades the request and hands the connection to the hub,
// which sends the current snapshot followed by every pipeline event.
func StreamAnalysis(hub *ws.Hub, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written the error response.
			_ = c.Error(err)
			return
		}
		hub.HandleConnection(conn)
	}
}
