package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quizroom/internal/domain"
	"quizroom/internal/game"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades HTTP requests to websockets and wires host and player
// connections into the session engine.
type WSHandler struct {
	engine   *game.Engine
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *game.Engine, hub *Hub) *WSHandler {
	return &WSHandler{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS handles both roles. Players connect with ?pin=...&name=...;
// the host connects with ?pin=...&role=host[&quizId=...]. A host
// disconnect leaves the room running; a player disconnect removes them
// from the roster.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	name := r.URL.Query().Get("name")
	isHost := r.URL.Query().Get("role") == "host"
	quizID := r.URL.Query().Get("quizId")
	if pin == "" || (!isHost && name == "") {
		http.Error(w, "missing pin or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{pin: pin, name: name, host: isHost, send: make(chan []byte, 16)}
	h.hub.add(c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	if isHost {
		h.engine.HostJoin(r.Context(), pin, quizID)
	} else {
		h.engine.Join(pin, name)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, c, inbound)
	}

	h.hub.remove(c)
	if !isHost {
		h.engine.Leave(pin, name)
	}
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, c *client, inbound inboundMessage) {
	switch inbound.Type {
	case "answer":
		if c.host {
			h.hub.sendTo(c, errorEvent("hosts do not answer"))
			return
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.sendTo(c, errorEvent("invalid answer payload"))
			return
		}
		h.engine.SubmitAnswer(c.pin, c.name, game.ParseAnswerIndices(payload.Answer))

	case "start_question":
		if !h.requireHost(c) {
			return
		}
		var payload domain.QuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.sendTo(c, errorEvent("invalid question payload"))
			return
		}
		h.engine.ArmQuestion(c.pin, payload, payload.DurationSec)

	case "next_question":
		if !h.requireHost(c) {
			return
		}
		if err := h.engine.ArmNext(r.Context(), c.pin); err != nil {
			h.hub.sendTo(c, errorEvent(err.Error()))
		}

	case "end_question":
		if !h.requireHost(c) {
			return
		}
		h.engine.Reveal(c.pin)

	case "end_game":
		if !h.requireHost(c) {
			return
		}
		h.engine.EndGame(r.Context(), c.pin)

	default:
		h.hub.sendTo(c, errorEvent("unsupported message type"))
	}
}

func (h *WSHandler) requireHost(c *client) bool {
	if !c.host {
		h.hub.sendTo(c, errorEvent("host only"))
		return false
	}
	return true
}

func errorEvent(message string) game.Event {
	return game.Event{Type: "error", Payload: errorPayload{Message: message}}
}
