// Package reconcile maintains a client-side view of a board from the
// realtime event stream. Apply is idempotent: replaying a delivered event, or
// receiving a create after the entity was already upserted, converges on the
// same view.
package reconcile

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/events"
)

// CardState is a card and the tasks currently on it.
type CardState struct {
	Card  *domain.Card
	Tasks map[uuid.UUID]*domain.Task
}

// BoardView is the reconciled state of one board room plus the viewer's
// pending invitations.
type BoardView struct {
	mu sync.Mutex

	boardID     uuid.UUID
	board       *domain.Board
	deleted     bool
	cards       map[uuid.UUID]*CardState
	assignments map[uuid.UUID]map[uuid.UUID]bool
	invitations map[uuid.UUID]*domain.Invitation
}

func NewBoardView(boardID uuid.UUID) *BoardView {
	return &BoardView{
		boardID:     boardID,
		cards:       make(map[uuid.UUID]*CardState),
		assignments: make(map[uuid.UUID]map[uuid.UUID]bool),
		invitations: make(map[uuid.UUID]*domain.Invitation),
	}
}

// Apply folds one event into the view. Events for other boards are ignored
// except invitation traffic, which arrives on the user channel and is not
// scoped to the joined room.
func (v *BoardView) Apply(ev events.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Type {
	case events.TypeBoardInvited:
		inv := &domain.Invitation{}
		if err := ev.DecodeData(inv); err != nil {
			return fmt.Errorf("reconcile.Apply: %w", err)
		}
		v.invitations[inv.ID] = inv
		return nil

	case events.TypeBoardInviteResponse:
		var resp struct {
			InviteID uuid.UUID `json:"invite_id"`
		}
		if err := ev.DecodeData(&resp); err != nil {
			return fmt.Errorf("reconcile.Apply: %w", err)
		}
		delete(v.invitations, resp.InviteID)
		return nil
	}

	if ev.BoardID != v.boardID {
		return nil
	}

	switch ev.Type {
	case events.TypeBoardCreated, events.TypeBoardUpdated:
		board := &domain.Board{}
		if err := ev.DecodeData(board); err != nil {
			return fmt.Errorf("reconcile.Apply: %w", err)
		}
		v.board = board

	case events.TypeBoardDeleted:
		v.deleted = true
		v.board = nil
		v.cards = make(map[uuid.UUID]*CardState)
		v.assignments = make(map[uuid.UUID]map[uuid.UUID]bool)

	case events.TypeMemberJoined:
		if v.board != nil && !v.board.HasMember(ev.MemberID) {
			v.board.Members = append(v.board.Members, ev.MemberID)
		}

	case events.TypeCardCreated, events.TypeCardUpdated:
		card := &domain.Card{}
		if err := ev.DecodeData(card); err != nil {
			return fmt.Errorf("reconcile.Apply: %w", err)
		}
		v.upsertCard(card)

	case events.TypeCardDeleted:
		delete(v.cards, ev.CardID)

	case events.TypeTaskCreated, events.TypeTaskUpdated, events.TypeTaskMoved:
		task := &domain.Task{}
		if err := ev.DecodeData(task); err != nil {
			return fmt.Errorf("reconcile.Apply: %w", err)
		}
		v.upsertTask(task)

	case events.TypeTaskDeleted:
		v.removeTask(ev.TaskID)
		delete(v.assignments, ev.TaskID)

	case events.TypeTaskAssigned:
		if v.assignments[ev.TaskID] == nil {
			v.assignments[ev.TaskID] = make(map[uuid.UUID]bool)
		}
		v.assignments[ev.TaskID][ev.MemberID] = true

	case events.TypeTaskUnassigned:
		delete(v.assignments[ev.TaskID], ev.MemberID)
	}

	return nil
}

// upsertCard replaces the card while keeping the tasks already reconciled
// onto it.
func (v *BoardView) upsertCard(card *domain.Card) {
	state, ok := v.cards[card.ID]
	if !ok {
		state = &CardState{Tasks: make(map[uuid.UUID]*domain.Task)}
		v.cards[card.ID] = state
	}
	state.Card = card
}

// upsertTask places the task under its current card, evicting it from any
// card it was reconciled onto before. A task event may outrun its card's
// create event; a shell card holds it until the card arrives.
func (v *BoardView) upsertTask(task *domain.Task) {
	v.removeTask(task.ID)

	state, ok := v.cards[task.CardID]
	if !ok {
		state = &CardState{Tasks: make(map[uuid.UUID]*domain.Task)}
		v.cards[task.CardID] = state
	}
	state.Tasks[task.ID] = task
}

func (v *BoardView) removeTask(taskID uuid.UUID) {
	for _, state := range v.cards {
		delete(state.Tasks, taskID)
	}
}

// Board returns the reconciled board, nil before the first board event.
func (v *BoardView) Board() *domain.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.board
}

// Deleted reports whether a board_deleted event has been applied.
func (v *BoardView) Deleted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleted
}

// Card returns the reconciled state of one card, nil when unknown.
func (v *BoardView) Card(cardID uuid.UUID) *CardState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cards[cardID]
}

// Task returns a reconciled task wherever it currently sits, nil when
// unknown.
func (v *BoardView) Task(taskID uuid.UUID) *domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, state := range v.cards {
		if t, ok := state.Tasks[taskID]; ok {
			return t
		}
	}
	return nil
}

// Assignees returns the member ids assigned to a task.
func (v *BoardView) Assignees(taskID uuid.UUID) []uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(v.assignments[taskID]))
	for id := range v.assignments[taskID] {
		ids = append(ids, id)
	}
	return ids
}

// PendingInvitations returns the invitations seen but not yet answered.
func (v *BoardView) PendingInvitations() []*domain.Invitation {
	v.mu.Lock()
	defer v.mu.Unlock()

	invs := make([]*domain.Invitation, 0, len(v.invitations))
	for _, inv := range v.invitations {
		invs = append(invs, inv)
	}
	return invs
}
