package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/server/middleware"
)

// Subscriber is the transport half the hub consumes. *redis.PubSub satisfies
// this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// ChannelFor maps an entity id to a pub/sub channel name, keeping the hub
// decoupled from the redis package's naming scheme.
type ChannelFor func(id uuid.UUID) string

// Hub serves WebSocket connections backed by Redis pub/sub. Each connection
// is subscribed to its user's channel on accept and joins board rooms on
// request.
type Hub struct {
	sub          Subscriber
	boards       domain.BoardRepository
	boardChannel ChannelFor
	userChannel  ChannelFor
}

func NewHub(sub Subscriber, boards domain.BoardRepository, boardChannel, userChannel ChannelFor) *Hub {
	return &Hub{
		sub:          sub,
		boards:       boards,
		boardChannel: boardChannel,
		userChannel:  userChannel,
	}
}

// clientFrame is what the browser sends over the socket.
type clientFrame struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"board_id"`
}

// controlFrame is the hub's own traffic back to the client, interleaved with
// forwarded events.
type controlFrame struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"board_id,omitzero"`
	Message string    `json:"message,omitempty"`
}

const (
	frameJoinBoard  = "join_board"
	frameLeaveBoard = "leave_board"
)

// Serve upgrades the request and runs the connection until the client goes
// away. One writer goroutine drains the merged outgoing channel; the read
// loop owns the per-board room state, so joins and leaves need no locking.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outgoing := make(chan []byte, 64)

	// Invitations land on the user channel before the user is in any board
	// room, so every connection carries it.
	userMsgs, userCleanup, err := h.sub.Subscribe(ctx, h.userChannel(userID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe user channel")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer userCleanup()

	go forward(ctx, userMsgs, outgoing)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, msgOK := <-outgoing:
				if !msgOK {
					return
				}
				if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
					log.Debug().Err(writeErr).Msg("websocket write")
					cancel()
					return
				}
			}
		}
	}()

	rooms := make(map[uuid.UUID]func())
	defer func() {
		for _, cleanup := range rooms {
			cleanup()
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.control(ctx, outgoing, controlFrame{Type: "error", Message: "malformed frame"})
			continue
		}

		switch frame.Type {
		case frameJoinBoard:
			h.joinBoard(ctx, userID, frame.BoardID, rooms, outgoing)
		case frameLeaveBoard:
			if cleanup, joined := rooms[frame.BoardID]; joined {
				cleanup()
				delete(rooms, frame.BoardID)
			}
			h.control(ctx, outgoing, controlFrame{Type: "board_left", BoardID: frame.BoardID})
		default:
			h.control(ctx, outgoing, controlFrame{Type: "error", Message: "unknown frame type"})
		}
	}
}

// joinBoard subscribes the connection to a board room after a membership
// check. Joining a room twice is a no-op.
func (h *Hub) joinBoard(ctx context.Context, userID, boardID uuid.UUID, rooms map[uuid.UUID]func(), outgoing chan<- []byte) {
	if _, joined := rooms[boardID]; joined {
		h.control(ctx, outgoing, controlFrame{Type: "board_joined", BoardID: boardID})
		return
	}

	board, err := h.boards.GetByID(ctx, boardID)
	if err != nil || !board.HasMember(userID) {
		h.control(ctx, outgoing, controlFrame{Type: "error", BoardID: boardID, Message: "cannot join board"})
		return
	}

	roomCtx, roomCancel := context.WithCancel(ctx)
	msgs, cleanup, err := h.sub.Subscribe(roomCtx, h.boardChannel(boardID))
	if err != nil {
		roomCancel()
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("websocket subscribe board channel")
		h.control(ctx, outgoing, controlFrame{Type: "error", BoardID: boardID, Message: "cannot join board"})
		return
	}

	go forward(roomCtx, msgs, outgoing)

	rooms[boardID] = func() {
		roomCancel()
		cleanup()
	}

	h.control(ctx, outgoing, controlFrame{Type: "board_joined", BoardID: boardID})
}

func (h *Hub) control(ctx context.Context, outgoing chan<- []byte, frame controlFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("websocket control frame marshal")
		return
	}
	select {
	case outgoing <- payload:
	case <-ctx.Done():
	}
}

// forward copies messages from a subscription into the connection's merged
// outgoing channel until either side closes.
func forward(ctx context.Context, in <-chan []byte, out chan<- []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}
