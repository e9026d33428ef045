package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
)

// HandleWebSocket upgrades the request and streams events until the peer
// disconnects. The optional challenge_id query parameter narrows the feed.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var challengeID uuid.UUID
		if v := r.URL.Query().Get("challenge_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				http.Error(w, "invalid challenge_id", http.StatusBadRequest)
				return
			}
			challengeID = id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Warn("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, challengeID).Run(r.Context())
	}
}
