package broadcaster

import (
	"net/http"
	"sync"
	"time"

	"clan-battles/internal/constants"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Broadcaster fans sync status text out to connected browser websockets.
type Broadcaster struct {
	clients map[*websocket.Conn]bool
	sync.RWMutex
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       zerolog.Logger
}

func New(logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// origins are restricted by the CORS layer
				return true
			},
		},
		writeTimeout: constants.StatusWriteTimeout,
		logger:       logger,
	}
}

func (b *Broadcaster) Clients() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.clients)
}

// HandleConnections upgrades the request and blocks until the client leaves.
func (b *Broadcaster) HandleConnections(w http.ResponseWriter, r *http.Request, initialMessage []byte) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	b.Lock()
	if initialMessage != nil {
		if err := b.write(conn, initialMessage); err != nil {
			b.logger.Warn().Err(err).Str("remote_addr", conn.RemoteAddr().String()).Msg("failed to send initial status")
		}
	}
	b.clients[conn] = true
	total := len(b.clients)
	b.Unlock()

	b.logger.Debug().Str("remote_addr", conn.RemoteAddr().String()).Int("clients", total).Msg("status client connected")

	// reads only detect the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.Lock()
	delete(b.clients, conn)
	total = len(b.clients)
	b.Unlock()
	b.logger.Debug().Str("remote_addr", conn.RemoteAddr().String()).Int("clients", total).Msg("status client removed")
}

// Broadcast writes message to every client. Writes are serialized because a
// websocket connection allows a single concurrent writer. A client that cannot
// take the message within writeTimeout is closed and drops out through its
// read loop.
func (b *Broadcaster) Broadcast(message []byte) {
	b.Lock()
	defer b.Unlock()

	for client := range b.clients {
		if err := b.write(client, message); err != nil {
			b.logger.Warn().Err(err).Str("remote_addr", client.RemoteAddr().String()).Msg("failed to send status, closing client")
			client.Close()
		}
	}
}

func (b *Broadcaster) write(conn *websocket.Conn, message []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, message)
}
