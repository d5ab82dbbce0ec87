package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/corkboard/corkboard/internal/api/v1"
	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/events"
)

// boardCard wires a card repo whose board-scoped lookup resolves cid on bid
// and nothing else, the way the real query behaves for foreign card ids.
func boardCard(bid, cid uuid.UUID) *mockCardRepo {
	return &mockCardRepo{
		getByIDFunc: func(_ context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
			if boardID != bid || id != cid {
				return nil, domain.ErrNotFound
			}
			return &domain.Card{ID: cid, BoardID: bid}, nil
		},
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	t.Run("defaults_to_icebox", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		cid := uuid.New()

		var created *domain.Task
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards: &mockCardRepo{
				getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Card, error) {
					return &domain.Card{ID: cid, BoardID: bid}, nil
				},
			},
			tasks: &mockTaskRepo{
				createFunc: func(_ context.Context, task *domain.Task) error {
					created = task
					return nil
				},
			},
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks", map[string]any{
			"title": "write docs",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		require.NotNil(t, created)
		assert.Equal(t, domain.TaskStatusIcebox, created.Status)
		assert.Equal(t, uid, created.OwnerID)
		assert.Equal(t, cid, created.CardID)
		assert.Equal(t, bid, created.BoardID)

		msgs := pub.all()
		require.Len(t, msgs, 1)
		assert.Equal(t, events.TypeTaskCreated, msgs[0].Event.Type)
		assert.Equal(t, created.ID, msgs[0].Event.TaskID)
	})

	t.Run("explicit_status", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		cid := uuid.New()

		var created *domain.Task
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards: &mockCardRepo{
				getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Card, error) {
					return &domain.Card{ID: cid, BoardID: bid}, nil
				},
			},
			tasks: &mockTaskRepo{
				createFunc: func(_ context.Context, task *domain.Task) error {
					created = task
					return nil
				},
			},
		}
		emitter, _ := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks", map[string]any{
			"title":  "ship it",
			"status": "ongoing",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, domain.TaskStatusOngoing, created.Status)
	})

	t.Run("unknown_status_rejected_by_schema", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		cid := uuid.New()

		_, api := humatest.New(t)
		store := &mockDataStore{boards: memberBoard(bid, uid), cards: &mockCardRepo{}, tasks: &mockTaskRepo{}}
		emitter, _ := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks", map[string]any{
			"title":  "bad",
			"status": "archived",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("card_not_found", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()

		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards: &mockCardRepo{
				getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Card, error) {
					return nil, domain.ErrNotFound
				},
			},
			tasks: &mockTaskRepo{},
		}
		emitter, _ := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+uuid.NewString()+"/tasks", map[string]any{
			"title": "orphan",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	bid := uuid.New()
	cid := uuid.New()
	tid := uuid.New()

	var updated *domain.Task
	_, api := humatest.New(t)
	store := &mockDataStore{
		boards: memberBoard(bid, uid),
		cards:  boardCard(bid, cid),
		tasks: &mockTaskRepo{
			getByCardFunc: func(_ context.Context, cardID, id uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, cid, cardID)
				assert.Equal(t, tid, id)
				return &domain.Task{ID: tid, CardID: cid, BoardID: bid, Title: "old", Status: domain.TaskStatusIcebox}, nil
			},
			updateFunc: func(_ context.Context, task *domain.Task) error {
				updated = task
				return nil
			},
		},
	}
	emitter, pub := newTestEmitter()
	v1.RegisterTaskRoutes(api, store, emitter)

	resp := api.PutCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks/"+tid.String(), map[string]any{
		"title":  "new title",
		"status": "done",
	})

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, updated)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, domain.TaskStatusDone, updated.Status)

	msgs := pub.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.TypeTaskUpdated, msgs[0].Event.Type)
}

func TestMoveTask(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		from := uuid.New()
		to := uuid.New()
		tid := uuid.New()

		var movedFrom, movedTo uuid.UUID
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards: &mockCardRepo{
				getByIDFunc: func(_ context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
					assert.Equal(t, bid, boardID)
					if id != from && id != to {
						return nil, domain.ErrNotFound
					}
					return &domain.Card{ID: id, BoardID: bid}, nil
				},
			},
			tasks: &mockTaskRepo{
				moveFunc: func(_ context.Context, id, fromCardID, toCardID uuid.UUID) error {
					assert.Equal(t, tid, id)
					movedFrom = fromCardID
					movedTo = toCardID
					return nil
				},
				getByCardFunc: func(_ context.Context, cardID, id uuid.UUID) (*domain.Task, error) {
					return &domain.Task{ID: id, CardID: cardID, BoardID: bid, Title: "moved"}, nil
				},
			},
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+from.String()+"/tasks/"+tid.String()+"/move", map[string]any{
			"card_id": to.String(),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, from, movedFrom)
		assert.Equal(t, to, movedTo)

		msgs := pub.all()
		require.Len(t, msgs, 1)
		assert.Equal(t, events.TypeTaskMoved, msgs[0].Event.Type)
		assert.Equal(t, to, msgs[0].Event.CardID, "event carries the destination card")
	})

	t.Run("lost_race_returns_404", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		to := uuid.New()

		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards: &mockCardRepo{
				getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Card, error) {
					return &domain.Card{ID: to, BoardID: bid}, nil
				},
			},
			tasks: &mockTaskRepo{
				moveFunc: func(_ context.Context, _, _, _ uuid.UUID) error {
					return domain.ErrNotFound
				},
			},
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+uuid.NewString()+"/tasks/"+uuid.NewString()+"/move", map[string]any{
			"card_id": to.String(),
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Empty(t, pub.all(), "no event for a move that did not happen")
	})

	t.Run("destination_on_other_board_rejected", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		from := uuid.New()

		var moveCalled bool
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			// The board-scoped lookup misses cards on other boards, so only
			// the source card resolves.
			cards: boardCard(bid, from),
			tasks: &mockTaskRepo{
				moveFunc: func(_ context.Context, _, _, _ uuid.UUID) error {
					moveCalled = true
					return nil
				},
			},
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+from.String()+"/tasks/"+uuid.NewString()+"/move", map[string]any{
			"card_id": uuid.NewString(),
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.False(t, moveCalled, "move must not reach the store")
		assert.Empty(t, pub.all())
	})

	t.Run("source_card_on_other_board_rejected", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		bid := uuid.New()
		dest := uuid.New()

		var moveCalled bool
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards:  boardCard(bid, dest),
			tasks: &mockTaskRepo{
				moveFunc: func(_ context.Context, _, _, _ uuid.UUID) error {
					moveCalled = true
					return nil
				},
			},
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)

		// The claimed source card lives on another board; a member of bid must
		// not be able to pull its task over.
		resp := api.PostCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+uuid.NewString()+"/tasks/"+uuid.NewString()+"/move", map[string]any{
			"card_id": dest.String(),
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.False(t, moveCalled, "move must not reach the store")
		assert.Empty(t, pub.all())
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	bid := uuid.New()
	cid := uuid.New()
	tid := uuid.New()

	_, api := humatest.New(t)
	store := &mockDataStore{
		boards: memberBoard(bid, uid),
		cards:  boardCard(bid, cid),
		tasks: &mockTaskRepo{
			deleteFunc: func(_ context.Context, cardID, id uuid.UUID) error {
				assert.Equal(t, cid, cardID)
				assert.Equal(t, tid, id)
				return nil
			},
		},
	}
	emitter, pub := newTestEmitter()
	v1.RegisterTaskRoutes(api, store, emitter)

	resp := api.DeleteCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks/"+tid.String())

	require.Equal(t, http.StatusNoContent, resp.Code)

	msgs := pub.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.TypeTaskDeleted, msgs[0].Event.Type)
	assert.Equal(t, tid, msgs[0].Event.TaskID)
}

// Card and task ids from another board must behave as if they do not exist,
// even for a caller who is a legitimate member of the board in the path.
func TestTaskRoutes_ForeignCardInvisible(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	bid := uuid.New()
	ownCard := uuid.New()
	foreignCard := uuid.New()
	foreignTask := uuid.New()

	newAPI := func(t *testing.T) (humatest.TestAPI, *recordingPublisher) {
		t.Helper()

		tasks := &mockTaskRepo{
			getByCardFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Task, error) {
				t.Error("task lookup must not run for a foreign card")
				return nil, domain.ErrNotFound
			},
			listByCardFunc: func(_ context.Context, _ uuid.UUID) ([]*domain.Task, error) {
				t.Error("task list must not run for a foreign card")
				return nil, nil
			},
			deleteFunc: func(_ context.Context, _, _ uuid.UUID) error {
				t.Error("delete must not run for a foreign card")
				return nil
			},
			updateFunc: func(_ context.Context, _ *domain.Task) error {
				t.Error("update must not run for a foreign card")
				return nil
			},
		}
		_, api := humatest.New(t)
		store := &mockDataStore{
			boards: memberBoard(bid, uid),
			cards:  boardCard(bid, ownCard),
			tasks:  tasks,
		}
		emitter, pub := newTestEmitter()
		v1.RegisterTaskRoutes(api, store, emitter)
		return api, pub
	}

	base := "/boards/" + bid.String() + "/cards/" + foreignCard.String() + "/tasks"

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		api, _ := newAPI(t)
		resp := api.GetCtx(userCtx(uid), base)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		api, _ := newAPI(t)
		resp := api.GetCtx(userCtx(uid), base+"/"+foreignTask.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		api, pub := newAPI(t)
		resp := api.PutCtx(userCtx(uid), base+"/"+foreignTask.String(), map[string]any{
			"title": "hijack",
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Empty(t, pub.all())
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		api, pub := newAPI(t)
		resp := api.DeleteCtx(userCtx(uid), base+"/"+foreignTask.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Empty(t, pub.all(), "no event for a delete that did not happen")
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	bid := uuid.New()
	cid := uuid.New()
	tid := uuid.New()

	_, api := humatest.New(t)
	store := &mockDataStore{
		boards: memberBoard(bid, uid),
		cards:  boardCard(bid, cid),
		tasks: &mockTaskRepo{
			getByCardFunc: func(_ context.Context, cardID, id uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, cid, cardID)
				return &domain.Task{ID: id, CardID: cardID, BoardID: bid, Title: "found"}, nil
			},
		},
	}
	emitter, _ := newTestEmitter()
	v1.RegisterTaskRoutes(api, store, emitter)

	resp := api.GetCtx(userCtx(uid), "/boards/"+bid.String()+"/cards/"+cid.String()+"/tasks/"+tid.String())

	require.Equal(t, http.StatusOK, resp.Code)

	var got domain.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, tid, got.ID)
	assert.Equal(t, "found", got.Title)
}
