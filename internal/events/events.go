package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	redisstore "github.com/corkboard/corkboard/internal/store/redis"
)

// Event type names follow the {entity}_{action} convention the realtime
// clients switch on.
const (
	TypeBoardCreated        = "board_created"
	TypeBoardUpdated        = "board_updated"
	TypeBoardDeleted        = "board_deleted"
	TypeCardCreated         = "card_created"
	TypeCardUpdated         = "card_updated"
	TypeCardDeleted         = "card_deleted"
	TypeTaskCreated         = "task_created"
	TypeTaskUpdated         = "task_updated"
	TypeTaskDeleted         = "task_deleted"
	TypeTaskMoved           = "task_moved"
	TypeTaskAssigned        = "task_assigned"
	TypeTaskUnassigned      = "task_unassigned"
	TypeBoardInvited        = "board_invited"
	TypeMemberJoined        = "member_joined"
	TypeBoardInviteResponse = "board_invite_response"
)

// Event is the envelope fanned out to a board's room. Data carries the full
// resulting entity for create/update events so subscribers can upsert
// without a follow-up read.
type Event struct {
	Type     string    `json:"type"`
	BoardID  uuid.UUID `json:"board_id"`
	CardID   uuid.UUID `json:"card_id,omitzero"`
	TaskID   uuid.UUID `json:"task_id,omitzero"`
	MemberID uuid.UUID `json:"member_id,omitzero"`
	Data     any       `json:"data,omitempty"`
}

// DecodeData unmarshals the event payload into v. Works on both the
// publishing side (Data holds a struct) and the consuming side (Data holds
// the generic JSON decoding).
func (e *Event) DecodeData(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("events.Event.DecodeData: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("events.Event.DecodeData: %w", err)
	}
	return nil
}

// Publisher is the transport half the emitter needs. *redis.PubSub
// satisfies this interface.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Emitter serializes events onto board and user channels. Delivery is
// fire-and-forget: transport failures are logged and swallowed so a broken
// broadcast never fails the mutation that caused it.
type Emitter struct {
	pub Publisher
}

func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

// EmitBoard publishes the event to the board's room.
func (e *Emitter) EmitBoard(ctx context.Context, boardID uuid.UUID, ev Event) {
	e.emit(ctx, redisstore.BoardChannel(boardID), ev)
}

// EmitUser publishes the event to a single user's channel, used for
// invitations to boards the user is not yet a member of.
func (e *Emitter) EmitUser(ctx context.Context, userID uuid.UUID, ev Event) {
	e.emit(ctx, redisstore.UserChannel(userID), ev)
}

func (e *Emitter) emit(ctx context.Context, channel string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("events: marshal")
		return
	}

	if err := e.pub.Publish(ctx, channel, payload); err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Str("channel", channel).Msg("events: publish")
	}
}
