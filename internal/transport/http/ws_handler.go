package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"history-quiz/internal/app"
	"history-quiz/internal/domain"
	"history-quiz/internal/screen"
)

type WSHandler struct {
	service     *app.QuizService
	defaultBank string
	upgrader    websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultBank string) *WSHandler {
	return &WSHandler{
		service:     service,
		defaultBank: defaultBank,
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

// selectPayload picks either by option text or by 0-based position.
type selectPayload struct {
	Option   string `json:"option"`
	Position *int   `json:"position"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type navigatePayload struct {
	Screen screen.ID `json:"screen"`
}

// ServeWS upgrades HTTP requests to websockets and gives the connection its
// own quiz session. A snapshot is pushed after every event and tick.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bankID := r.URL.Query().Get("bank")
	if bankID == "" {
		bankID = h.defaultBank
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartSession(r.Context(), bankID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(context.Background(), session.ID())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	inputs := make(chan app.Event)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	// The writer is the only goroutine touching conn writes. After a write
	// error it keeps draining so producers never block.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				glog.V(1).Infof("ws write error: %v", err)
				cancel()
				for range send {
				}
				return
			}
		}
	}()

	enqueue := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(readerDone)
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				cancel()
				return
			}
			ev, err := decodeEvent(inbound)
			if err != nil {
				enqueue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			select {
			case inputs <- ev:
			case <-ctx.Done():
				return
			}
			if _, exit := ev.(app.Exit); exit {
				return
			}
		}
	}()

	lastRound := -1
	render := func(s domain.Snapshot) {
		if s.Round != lastRound {
			lastRound = s.Round
			h.service.Heartbeat(ctx, s.SessionID)
		}
		enqueue(outboundMessage[any]{Type: "snapshot", Payload: s})
	}

	err = session.Run(ctx, inputs, render)
	if err == nil {
		// clock already stopped by Run; hand the client back to the landing screen
		enqueue(outboundMessage[any]{Type: "navigate", Payload: navigatePayload{Screen: screen.Landing}})
	}

	cancel()
	_ = conn.SetReadDeadline(time.Now())
	<-readerDone
	close(send)
	<-writerDone
}

var errInvalidSelect = errors.New("invalid select payload")

type unsupportedTypeError string

func (e unsupportedTypeError) Error() string {
	return "unsupported message type " + string(e)
}

func decodeEvent(msg inboundMessage) (app.Event, error) {
	switch msg.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, errInvalidSelect
		}
		if payload.Position != nil {
			return app.SelectAt{Position: *payload.Position}, nil
		}
		return app.Select{Option: payload.Option}, nil
	case "advance":
		return app.Advance{}, nil
	case "restart":
		return app.Restart{}, nil
	case "exit":
		return app.Exit{}, nil
	default:
		return nil, unsupportedTypeError(msg.Type)
	}
}
