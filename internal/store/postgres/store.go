package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	users       *UserRepo
	boards      *BoardRepo
	cards       *CardRepo
	tasks       *TaskRepo
	invitations *InvitationRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		users:       NewUserRepo(pool),
		boards:      NewBoardRepo(pool),
		cards:       NewCardRepo(pool),
		tasks:       NewTaskRepo(pool),
		invitations: NewInvitationRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() domain.UserRepository             { return s.users }
func (s *Store) Boards() domain.BoardRepository           { return s.boards }
func (s *Store) Cards() domain.CardRepository             { return s.cards }
func (s *Store) Tasks() domain.TaskRepository             { return s.tasks }
func (s *Store) Invitations() domain.InvitationRepository { return s.invitations }
