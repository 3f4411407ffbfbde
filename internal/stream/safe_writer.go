package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeWriter serialises writes to a websocket connection. Reads are left
// to the single connection goroutine.
type SafeWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

func (w *SafeWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return w.conn.WriteJSON(v)
}

func (w *SafeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}
