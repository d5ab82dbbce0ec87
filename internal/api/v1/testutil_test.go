package v1_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/events"
	"github.com/corkboard/corkboard/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users   domain.UserRepository
	boards  domain.BoardRepository
	cards   domain.CardRepository
	tasks   domain.TaskRepository
	invites domain.InvitationRepository
}

func (m *mockDataStore) Users() domain.UserRepository             { return m.users }
func (m *mockDataStore) Boards() domain.BoardRepository           { return m.boards }
func (m *mockDataStore) Cards() domain.CardRepository             { return m.cards }
func (m *mockDataStore) Tasks() domain.TaskRepository             { return m.tasks }
func (m *mockDataStore) Invitations() domain.InvitationRepository { return m.invites }

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc              func(ctx context.Context, u *domain.User) error
	getByIDFunc             func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc          func(ctx context.Context, email string) (*domain.User, error)
	updateFunc              func(ctx context.Context, u *domain.User) error
	setVerificationCodeFunc func(ctx context.Context, id uuid.UUID, codeHash string, issuedAt time.Time) error
	markVerifiedFunc        func(ctx context.Context, id uuid.UUID) error
	getByIDsFunc            func(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, codeHash string, issuedAt time.Time) error {
	return m.setVerificationCodeFunc(ctx, id, codeHash, issuedAt)
}

func (m *mockUserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return m.markVerifiedFunc(ctx, id)
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	return m.getByIDsFunc(ctx, ids)
}

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc       func(ctx context.Context, b *domain.Board) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	listByMemberFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
	updateFunc       func(ctx context.Context, b *domain.Board) error
	addMemberFunc    func(ctx context.Context, boardID, userID uuid.UUID) error
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	return m.listByMemberFunc(ctx, userID)
}

func (m *mockBoardRepo) Update(ctx context.Context, b *domain.Board) error {
	return m.updateFunc(ctx, b)
}

func (m *mockBoardRepo) AddMember(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.addMemberFunc(ctx, boardID, userID)
}

func (m *mockBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock CardRepository
// ---------------------------------------------------------------------------

type mockCardRepo struct {
	createFunc            func(ctx context.Context, c *domain.Card) error
	getByIDFunc           func(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error)
	listByBoardFunc       func(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error)
	listByBoardMemberFunc func(ctx context.Context, boardID, userID uuid.UUID) ([]*domain.Card, error)
	updateFunc            func(ctx context.Context, c *domain.Card) error
	setMembersFunc        func(ctx context.Context, cardID uuid.UUID, members []uuid.UUID) error
	deleteFunc            func(ctx context.Context, boardID, id uuid.UUID) error
}

func (m *mockCardRepo) Create(ctx context.Context, c *domain.Card) error {
	return m.createFunc(ctx, c)
}

func (m *mockCardRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, boardID, id)
}

func (m *mockCardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockCardRepo) ListByBoardMember(ctx context.Context, boardID, userID uuid.UUID) ([]*domain.Card, error) {
	return m.listByBoardMemberFunc(ctx, boardID, userID)
}

func (m *mockCardRepo) Update(ctx context.Context, c *domain.Card) error {
	return m.updateFunc(ctx, c)
}

func (m *mockCardRepo) SetMembers(ctx context.Context, cardID uuid.UUID, members []uuid.UUID) error {
	return m.setMembersFunc(ctx, cardID, members)
}

func (m *mockCardRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, boardID, id)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	createFunc          func(ctx context.Context, t *domain.Task) error
	getByIDFunc         func(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error)
	getByCardFunc       func(ctx context.Context, cardID, id uuid.UUID) (*domain.Task, error)
	listByCardFunc      func(ctx context.Context, cardID uuid.UUID) ([]*domain.Task, error)
	updateFunc          func(ctx context.Context, t *domain.Task) error
	moveFunc            func(ctx context.Context, id, fromCardID, toCardID uuid.UUID) error
	deleteFunc          func(ctx context.Context, cardID, id uuid.UUID) error
	assignFunc          func(ctx context.Context, a *domain.Assignment) error
	listAssignmentsFunc func(ctx context.Context, taskID uuid.UUID) ([]*domain.Assignment, error)
	unassignFunc        func(ctx context.Context, taskID, memberID uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return m.createFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, boardID, id)
}

func (m *mockTaskRepo) GetByCard(ctx context.Context, cardID, id uuid.UUID) (*domain.Task, error) {
	return m.getByCardFunc(ctx, cardID, id)
}

func (m *mockTaskRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.Task, error) {
	return m.listByCardFunc(ctx, cardID)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTaskRepo) Move(ctx context.Context, id, fromCardID, toCardID uuid.UUID) error {
	return m.moveFunc(ctx, id, fromCardID, toCardID)
}

func (m *mockTaskRepo) Delete(ctx context.Context, cardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, cardID, id)
}

func (m *mockTaskRepo) Assign(ctx context.Context, a *domain.Assignment) error {
	return m.assignFunc(ctx, a)
}

func (m *mockTaskRepo) ListAssignments(ctx context.Context, taskID uuid.UUID) ([]*domain.Assignment, error) {
	return m.listAssignmentsFunc(ctx, taskID)
}

func (m *mockTaskRepo) Unassign(ctx context.Context, taskID, memberID uuid.UUID) error {
	return m.unassignFunc(ctx, taskID, memberID)
}

// ---------------------------------------------------------------------------
// Mock InvitationRepository
// ---------------------------------------------------------------------------

type mockInvitationRepo struct {
	createFunc             func(ctx context.Context, inv *domain.Invitation) error
	getByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	listPendingByEmailFunc func(ctx context.Context, email string) ([]*domain.Invitation, error)
	updateStatusFunc       func(ctx context.Context, id uuid.UUID, from, to domain.InvitationStatus) error
}

func (m *mockInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	return m.createFunc(ctx, inv)
}

func (m *mockInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockInvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return m.listPendingByEmailFunc(ctx, email)
}

func (m *mockInvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.InvitationStatus) error {
	return m.updateStatusFunc(ctx, id, from, to)
}

// ---------------------------------------------------------------------------
// Mock AuthService / GitHubAuthenticator
// ---------------------------------------------------------------------------

type mockAuthService struct {
	sendCodeFunc func(ctx context.Context, email string) error
	signupFunc   func(ctx context.Context, email, code string) (*domain.User, error)
	signinFunc   func(ctx context.Context, email, code string) (string, error)
}

func (m *mockAuthService) SendCode(ctx context.Context, email string) error {
	return m.sendCodeFunc(ctx, email)
}

func (m *mockAuthService) Signup(ctx context.Context, email, code string) (*domain.User, error) {
	return m.signupFunc(ctx, email, code)
}

func (m *mockAuthService) Signin(ctx context.Context, email, code string) (string, error) {
	return m.signinFunc(ctx, email, code)
}

type mockGitHubAuth struct {
	signinFunc func(ctx context.Context, code string) (string, error)
}

func (m *mockGitHubAuth) Signin(ctx context.Context, code string) (string, error) {
	return m.signinFunc(ctx, code)
}

// ---------------------------------------------------------------------------
// Mock MembershipLedger
// ---------------------------------------------------------------------------

type mockLedger struct {
	inviteFunc         func(ctx context.Context, boardID, inviterID uuid.UUID, inviteeEmail string) (*domain.Invitation, error)
	respondFunc        func(ctx context.Context, invitationID, responderID uuid.UUID, decision domain.InvitationStatus) error
	listPendingForFunc func(ctx context.Context, email string) ([]*domain.Invitation, error)
	membersFunc        func(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error)
}

func (m *mockLedger) Invite(ctx context.Context, boardID, inviterID uuid.UUID, inviteeEmail string) (*domain.Invitation, error) {
	return m.inviteFunc(ctx, boardID, inviterID, inviteeEmail)
}

func (m *mockLedger) Respond(ctx context.Context, invitationID, responderID uuid.UUID, decision domain.InvitationStatus) error {
	return m.respondFunc(ctx, invitationID, responderID, decision)
}

func (m *mockLedger) ListPendingFor(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return m.listPendingForFunc(ctx, email)
}

func (m *mockLedger) Members(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error) {
	return m.membersFunc(ctx, boardID)
}

// ---------------------------------------------------------------------------
// Recording publisher — captures everything the handlers broadcast
// ---------------------------------------------------------------------------

type publishedMessage struct {
	Channel string
	Event   events.Event
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	var ev events.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Channel: channel, Event: ev})
	return nil
}

func (p *recordingPublisher) all() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

func newTestEmitter() (*events.Emitter, *recordingPublisher) {
	pub := &recordingPublisher{}
	return events.NewEmitter(pub), pub
}
