package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a websocket connection as a watcher of one research run.
func ServeWs(hub *Hub, c *websocket.Conn, runID string) {
	client := &Client{Hub: hub, Conn: c, RunID: runID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
