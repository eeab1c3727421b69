package server

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// hub tracks connected clients and fans snapshots out to all of them.
type hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	direct     chan delivery
	log        *logrus.Logger
}

// delivery is a message for one specific client. It goes through the hub
// goroutine so the send can never race with unregister closing the channel.
type delivery struct {
	to  *client
	msg []byte
}

func newHub(log *logrus.Logger) *hub {
	h := &hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan delivery),
		log:        log,
	}
	go h.run()
	return h
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.WithFields(logrus.Fields{"client": c.id, "total": len(h.clients)}).Info("client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.log.WithFields(logrus.Fields{"client": c.id, "total": len(h.clients)}).Info("client disconnected")

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// send buffer full: the client is too slow, drop it
					delete(h.clients, c)
					close(c.send)
				}
			}

		case d := <-h.direct:
			if _, ok := h.clients[d.to]; !ok {
				// the client disconnected before its message went out
				continue
			}
			select {
			case d.to.send <- d.msg:
			default:
				delete(h.clients, d.to)
				close(d.to.send)
			}
		}
	}
}

// client is one WebSocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *hub
	srv  *Server
}

// readPump consumes client ops; every op gets an individual reply, accepted
// ops also trigger a broadcast snapshot (sent by the server handler).
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.WithError(err).WithField("client", c.id).Warn("read error")
			}
			return
		}
		if reply := c.srv.handleMessage(raw); reply != nil {
			c.hub.direct <- delivery{to: c, msg: reply}
		}
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
