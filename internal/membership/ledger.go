package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/events"
)

// deletedBoardName is substituted in pending listings when the board behind
// an invitation no longer exists.
const deletedBoardName = "(deleted board)"

// memberAddAttempts bounds the retry of the member-set write after an accept
// has already been recorded. The status transition and the member insert are
// separate statements, so the retry keeps membership in step with the
// invitation status.
const memberAddAttempts = 3

// InviteMailer delivers invitation notices. Failures are best-effort.
type InviteMailer interface {
	SendBoardInvite(ctx context.Context, to, boardName, inviterEmail string) error
}

// Ledger owns board membership and the invitation lifecycle.
type Ledger struct {
	boards  domain.BoardRepository
	invites domain.InvitationRepository
	users   domain.UserRepository
	emitter *events.Emitter
	mailer  InviteMailer
}

func NewLedger(boards domain.BoardRepository, invites domain.InvitationRepository, users domain.UserRepository, emitter *events.Emitter, mailer InviteMailer) *Ledger {
	return &Ledger{
		boards:  boards,
		invites: invites,
		users:   users,
		emitter: emitter,
		mailer:  mailer,
	}
}

// Invite creates a pending invitation addressed to inviteeEmail. The inviter
// must be a member of the board.
func (l *Ledger) Invite(ctx context.Context, boardID, inviterID uuid.UUID, inviteeEmail string) (*domain.Invitation, error) {
	if inviteeEmail == "" {
		return nil, fmt.Errorf("membership.Invite: empty invitee email: %w", domain.ErrInvalidArgument)
	}

	board, err := l.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("membership.Invite: %w", err)
	}

	if !board.HasMember(inviterID) {
		return nil, fmt.Errorf("membership.Invite: inviter is not a board member: %w", domain.ErrForbidden)
	}

	inv := &domain.Invitation{
		ID:           uuid.New(),
		BoardID:      boardID,
		InviterID:    inviterID,
		InviteeEmail: inviteeEmail,
		Status:       domain.InvitationStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := l.invites.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("membership.Invite: %w", err)
	}

	ev := events.Event{
		Type:    events.TypeBoardInvited,
		BoardID: boardID,
		Data:    inv,
	}
	l.emitter.EmitBoard(ctx, boardID, ev)

	// The invitee is not in the board room yet; address them directly when
	// they already have an account.
	if invitee, lookupErr := l.users.GetByEmail(ctx, inviteeEmail); lookupErr == nil {
		l.emitter.EmitUser(ctx, invitee.ID, ev)
	}

	if l.mailer != nil {
		inviter, lookupErr := l.users.GetByID(ctx, inviterID)
		inviterEmail := ""
		if lookupErr == nil {
			inviterEmail = inviter.Email
		}
		if mailErr := l.mailer.SendBoardInvite(ctx, inviteeEmail, board.Name, inviterEmail); mailErr != nil {
			log.Warn().Err(mailErr).Str("board_id", boardID.String()).Msg("membership: invite mail")
		}
	}

	return inv, nil
}

// Respond transitions a pending invitation to accepted or declined. The
// responder must be the invitee (matched by email). On accept the responder
// joins the board's member set; the status transition and the member-set
// write are two separate statements, so the second write is retried rather
// than rolled back.
func (l *Ledger) Respond(ctx context.Context, invitationID, responderID uuid.UUID, decision domain.InvitationStatus) error {
	if decision != domain.InvitationStatusAccepted && decision != domain.InvitationStatusDeclined {
		return fmt.Errorf("membership.Respond: decision %q: %w", decision, domain.ErrInvalidArgument)
	}

	inv, err := l.invites.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("membership.Respond: %w", err)
	}

	responder, err := l.users.GetByID(ctx, responderID)
	if err != nil {
		return fmt.Errorf("membership.Respond: %w", err)
	}
	if !strings.EqualFold(responder.Email, inv.InviteeEmail) {
		return fmt.Errorf("membership.Respond: responder is not the invitee: %w", domain.ErrForbidden)
	}

	// Compare-and-set: only one responder can move the invitation out of
	// pending, concurrent calls lose with ErrConflict.
	if err := l.invites.UpdateStatus(ctx, invitationID, domain.InvitationStatusPending, decision); err != nil {
		return fmt.Errorf("membership.Respond: %w", err)
	}

	if decision == domain.InvitationStatusAccepted {
		if err := l.addMemberWithRetry(ctx, inv.BoardID, responderID); err != nil {
			return fmt.Errorf("membership.Respond: %w", err)
		}

		l.emitter.EmitBoard(ctx, inv.BoardID, events.Event{
			Type:     events.TypeMemberJoined,
			BoardID:  inv.BoardID,
			MemberID: responderID,
		})
	}

	l.emitter.EmitBoard(ctx, inv.BoardID, events.Event{
		Type:     events.TypeBoardInviteResponse,
		BoardID:  inv.BoardID,
		MemberID: responderID,
		Data:     map[string]string{"invite_id": invitationID.String(), "status": string(decision)},
	})

	return nil
}

// ListPendingFor returns the pending invitations addressed to an email, each
// carrying the board's display name. A deleted board does not fail the list;
// a placeholder name stands in.
func (l *Ledger) ListPendingFor(ctx context.Context, email string) ([]*domain.Invitation, error) {
	invs, err := l.invites.ListPendingByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("membership.ListPendingFor: %w", err)
	}

	for _, inv := range invs {
		if inv.BoardName == "" {
			inv.BoardName = deletedBoardName
		}
	}

	return invs, nil
}

// Members resolves the board's member set to users. The owner id is included
// defensively even if it is missing from the member set; ids that resolve to
// no user are dropped.
func (l *Ledger) Members(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error) {
	board, err := l.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("membership.Members: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(board.Members)+1)
	seen := make(map[uuid.UUID]bool, len(board.Members)+1)
	for _, m := range append([]uuid.UUID{board.OwnerID}, board.Members...) {
		if !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}

	users, err := l.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("membership.Members: %w", err)
	}

	return users, nil
}

func (l *Ledger) addMemberWithRetry(ctx context.Context, boardID, userID uuid.UUID) error {
	var err error
	for attempt := range memberAddAttempts {
		err = l.boards.AddMember(ctx, boardID, userID)
		if err == nil {
			return nil
		}

		log.Warn().Err(err).
			Int("attempt", attempt+1).
			Str("board_id", boardID.String()).
			Msg("membership: add member retry")

		select {
		case <-ctx.Done():
			return fmt.Errorf("add member: %w", ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
		}
	}

	// The invitation is already accepted; surface Unavailable so the caller
	// knows membership has not caught up yet.
	if !errors.Is(err, domain.ErrUnavailable) {
		err = fmt.Errorf("%v: %w", err, domain.ErrUnavailable)
	}
	return fmt.Errorf("add member after %d attempts: %w", memberAddAttempts, err)
}
