package main

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EchoHandler mirrors frames straight back, a connectivity check for new
// client builds.
func EchoHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			return
		}
		log.Debug().Bytes("msg", message).Msg("echo")
		if err = c.WriteMessage(mt, message); err != nil {
			return
		}
	}
}

// TelemetryHandler hands the socket to the conductor: json commands in,
// state frames out at the conductor's framerate.
func TelemetryHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	ENV.Conductor.AddClient(conn)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("telemetry client connected")
}

// StatusHandler serves one state frame over plain http.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ENV.Conductor.BuildState())
}
