package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

type wsConn struct {
	conn   *websocket.Conn
	id     string
	roomID string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, id, roomID string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		roomID: roomID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Emit(event string, payload any) error {
	return c.write(Message{Type: event}, payload)
}

// emitAck sends a response frame correlated to an inbound request.
func (c *wsConn) emitAck(event, ackID string, payload any) error {
	return c.write(Message{Type: event, AckID: ackID}, payload)
}

func (c *wsConn) write(msg Message, payload any) error {
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = b
	}

	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) RoomID() string { return c.roomID }
