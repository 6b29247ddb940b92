package livesync_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"studyboard/internal/apperr"
	"studyboard/internal/livesync"
	"studyboard/internal/logger"
	"studyboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource delivers snapshots synchronously on open and records the order
// in which feeds are opened and closed. With holdBoards set the boards feed
// opens without a snapshot until pushBoards is called.
type fakeSource struct {
	mu         sync.Mutex
	holdBoards bool
	log    []string
	open   map[string]int
	peak   map[string]int
	boards []model.Board
	lists  map[uuid.UUID][]model.List
	tasks  map[uuid.UUID][]model.Task

	boardsDeliver func([]model.Board)
	listsDeliver  map[uuid.UUID][]func([]model.List)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		open:         map[string]int{},
		peak:         map[string]int{},
		lists:        map[uuid.UUID][]model.List{},
		tasks:        map[uuid.UUID][]model.Task{},
		listsDeliver: map[uuid.UUID][]func([]model.List){},
	}
}

type fakeFeed struct {
	src  *fakeSource
	kind string
	key  string
	once sync.Once
}

func (f *fakeFeed) Close() error {
	f.once.Do(func() {
		f.src.mu.Lock()
		defer f.src.mu.Unlock()
		f.src.open[f.kind]--
		f.src.log = append(f.src.log, "close "+f.kind+" "+f.key)
	})
	return nil
}

func (s *fakeSource) opened(kind, key string) *fakeFeed {
	s.open[kind]++
	if s.open[kind] > s.peak[kind] {
		s.peak[kind] = s.open[kind]
	}
	s.log = append(s.log, "open "+kind+" "+key)
	return &fakeFeed{src: s, kind: kind, key: key}
}

func (s *fakeSource) WatchBoards(_ context.Context, ownerID uuid.UUID, deliver func([]model.Board)) (io.Closer, error) {
	s.mu.Lock()
	feed := s.opened("boards", ownerID.String())
	s.boardsDeliver = deliver
	boards := append([]model.Board(nil), s.boards...)
	hold := s.holdBoards
	s.mu.Unlock()

	if !hold {
		deliver(boards)
	}
	return feed, nil
}

func (s *fakeSource) WatchLists(_ context.Context, boardID uuid.UUID, deliver func([]model.List)) (io.Closer, error) {
	s.mu.Lock()
	feed := s.opened("lists", boardID.String())
	s.listsDeliver[boardID] = append(s.listsDeliver[boardID], deliver)
	lists := append([]model.List(nil), s.lists[boardID]...)
	s.mu.Unlock()

	deliver(lists)
	return feed, nil
}

func (s *fakeSource) WatchTasks(_ context.Context, boardID uuid.UUID, deliver func([]model.Task)) (io.Closer, error) {
	s.mu.Lock()
	feed := s.opened("tasks", boardID.String())
	tasks := append([]model.Task(nil), s.tasks[boardID]...)
	s.mu.Unlock()

	deliver(tasks)
	return feed, nil
}

func (s *fakeSource) OwnsBoard(_ context.Context, ownerID, boardID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, "owns "+boardID.String())
	for _, b := range s.boards {
		if b.ID == boardID {
			return b.OwnerID == ownerID, nil
		}
	}
	return false, nil
}

func (s *fakeSource) pushBoards(boards []model.Board) {
	s.mu.Lock()
	s.boards = boards
	deliver := s.boardsDeliver
	s.mu.Unlock()
	deliver(boards)
}

func (s *fakeSource) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeSource) openCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[kind]
}

type fakeBootstrapper struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (b *fakeBootstrapper) EnsureDefaultBoard(_ context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, ownerID)
	return model.DefaultBoardID(ownerID), nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []livesync.Change
}

func (p *recordingPublisher) Publish(change livesync.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}

type harness struct {
	src   *fakeSource
	boot  *fakeBootstrapper
	pub   *recordingPublisher
	ctrl  *livesync.Controller
	owner uuid.UUID
	a, b  model.Board
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	owner := uuid.New()
	h := &harness{
		src:   newFakeSource(),
		boot:  &fakeBootstrapper{},
		pub:   &recordingPublisher{},
		owner: owner,
		a:     model.Board{ID: model.DefaultBoardID(owner), Title: "My Board", OwnerID: owner, IsDefault: true},
		b:     model.Board{ID: uuid.New(), Title: "Physics", OwnerID: owner, Position: 1},
	}
	h.src.boards = []model.Board{h.a, h.b}
	h.src.lists[h.a.ID] = []model.List{
		{ID: uuid.New(), BoardID: h.a.ID, Title: "Later", Position: 2},
		{ID: uuid.New(), BoardID: h.a.ID, Title: "To Do", Position: 0},
	}
	h.src.lists[h.b.ID] = []model.List{{ID: uuid.New(), BoardID: h.b.ID, Title: "Labs", Position: 0}}
	h.ctrl = livesync.NewController(h.src, h.boot, h.pub, logger.Discard())
	return h
}

func TestController_SignInSelectsDefaultBoard(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	view := h.ctrl.View()
	assert.Equal(t, livesync.StateContentSubscribed, view.State)
	assert.Equal(t, h.a.ID, view.SelectedBoardID)
	require.Len(t, view.Lists, 2)
	assert.Equal(t, "To Do", view.Lists[0].Title)
	assert.Equal(t, "Later", view.Lists[1].Title)
	assert.Equal(t, []uuid.UUID{h.owner}, h.boot.calls)
	assert.Equal(t, 1, h.src.openCount("boards"))
	assert.Equal(t, 1, h.src.openCount("lists"))
	assert.Equal(t, 1, h.src.openCount("tasks"))
}

func TestController_SignInTwice(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	assert.ErrorIs(t, h.ctrl.SignIn(context.Background(), h.owner), livesync.ErrAlreadySignedIn)
}

func TestController_SwitchingTearsDownBeforeSetup(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	require.NoError(t, h.ctrl.Select(h.b.ID))
	require.NoError(t, h.ctrl.Select(h.a.ID))

	a, b := h.a.ID.String(), h.b.ID.String()
	assert.Equal(t, []string{
		"open boards " + h.owner.String(),
		"open lists " + a,
		"open tasks " + a,
		"close lists " + a,
		"close tasks " + a,
		"open lists " + b,
		"open tasks " + b,
		"close lists " + b,
		"close tasks " + b,
		"open lists " + a,
		"open tasks " + a,
	}, h.src.events())
	assert.Equal(t, 1, h.src.peak["lists"])
	assert.Equal(t, 1, h.src.peak["tasks"])
	assert.Equal(t, 1, h.src.openCount("lists"))
	assert.Equal(t, 1, h.src.openCount("tasks"))
}

func TestController_StaleSnapshotDiscarded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))
	staleA := h.src.listsDeliver[h.a.ID][0]

	require.NoError(t, h.ctrl.Select(h.b.ID))
	before := h.pub.count()

	staleA([]model.List{{ID: uuid.New(), BoardID: h.a.ID, Title: "Ghost"}})

	view := h.ctrl.View()
	require.Len(t, view.Lists, 1)
	assert.Equal(t, "Labs", view.Lists[0].Title)
	assert.Equal(t, before, h.pub.count())
}

func TestController_StaleSnapshotFromEarlierSelectionOfSameBoard(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))
	firstA := h.src.listsDeliver[h.a.ID][0]

	require.NoError(t, h.ctrl.Select(h.b.ID))
	require.NoError(t, h.ctrl.Select(h.a.ID))

	firstA(nil)

	assert.Len(t, h.ctrl.View().Lists, 2)
}

func TestController_SelectUnknownBoard(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	err := h.ctrl.Select(uuid.New())

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, h.a.ID, h.ctrl.View().SelectedBoardID)
}

func TestController_SelectBeforeFirstBoardsSnapshot(t *testing.T) {
	h := newHarness(t)
	h.src.holdBoards = true
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))
	require.Empty(t, h.ctrl.View().Boards)

	require.NoError(t, h.ctrl.Select(h.b.ID))
	assert.Equal(t, h.b.ID, h.ctrl.View().SelectedBoardID)
	assert.Contains(t, h.src.events(), "owns "+h.b.ID.String())

	foreign := uuid.New()
	assert.ErrorIs(t, h.ctrl.Select(foreign), apperr.ErrNotFound)

	h.src.pushBoards([]model.Board{h.a, h.b})

	view := h.ctrl.View()
	assert.Equal(t, h.b.ID, view.SelectedBoardID)
	require.Len(t, view.Lists, 1)
	assert.Equal(t, "Labs", view.Lists[0].Title)
	assert.Equal(t, 1, h.src.openCount("lists"))
}

func TestController_SelectAfterSnapshotSkipsStore(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	require.NoError(t, h.ctrl.Select(h.b.ID))

	assert.NotContains(t, h.src.events(), "owns "+h.b.ID.String())
}

func TestController_SelectBeforeSignIn(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.ctrl.Select(h.a.ID), livesync.ErrNotSignedIn)
}

func TestController_SelectedBoardVanishes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))
	require.NoError(t, h.ctrl.Select(h.b.ID))

	h.src.pushBoards([]model.Board{h.a})

	view := h.ctrl.View()
	assert.Equal(t, h.a.ID, view.SelectedBoardID)
	assert.Len(t, view.Boards, 1)
	assert.Equal(t, 1, h.src.openCount("lists"))
}

func TestController_FallsBackToFirstBoard(t *testing.T) {
	h := newHarness(t)
	h.src.boards = []model.Board{h.b}

	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	assert.Equal(t, h.b.ID, h.ctrl.View().SelectedBoardID)
}

func TestController_BoardsChangePublishesDiff(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	renamed := h.b
	renamed.Title = "Physics II"
	added := model.Board{ID: uuid.New(), Title: "Chemistry", OwnerID: h.owner, Position: 2}
	h.src.pushBoards([]model.Board{renamed, added})

	h.pub.mu.Lock()
	defer h.pub.mu.Unlock()
	var change *livesync.Change
	for i := range h.pub.changes {
		if h.pub.changes[i].Collection == livesync.CollectionBoards {
			change = &h.pub.changes[i]
		}
	}
	require.NotNil(t, change)
	assert.Equal(t, []model.Board{added}, change.Boards.Added)
	assert.Equal(t, []model.Board{renamed}, change.Boards.Updated)
	assert.Equal(t, []uuid.UUID{h.a.ID}, change.Boards.Removed)
}

func TestController_SignOutClosesEverything(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	h.ctrl.SignOut()

	assert.Equal(t, livesync.StateIdle, h.ctrl.State())
	assert.Equal(t, 0, h.src.openCount("boards"))
	assert.Equal(t, 0, h.src.openCount("lists"))
	assert.Equal(t, 0, h.src.openCount("tasks"))

	before := h.pub.count()
	h.src.pushBoards([]model.Board{h.b})
	assert.Equal(t, before, h.pub.count())

	// Signing in again starts from scratch.
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))
	assert.Equal(t, 1, h.src.openCount("lists"))
}

func TestController_ConcurrentSelects(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SignIn(context.Background(), h.owner))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := h.a.ID
			if i%2 == 1 {
				target = h.b.ID
			}
			assert.NoError(t, h.ctrl.Select(target))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, h.src.peak["lists"])
	assert.Equal(t, 1, h.src.openCount("lists"))
	assert.Equal(t, 1, h.src.openCount("tasks"))
	view := h.ctrl.View()
	require.NotEmpty(t, view.Lists)
	assert.Equal(t, view.SelectedBoardID, view.Lists[0].BoardID)
}

func TestState_String(t *testing.T) {
	for state, want := range map[livesync.State]string{
		livesync.StateIdle:              "idle",
		livesync.StateBoardsSubscribed:  "boards_subscribed",
		livesync.StateContentSubscribed: "content_subscribed",
	} {
		assert.Equal(t, want, state.String(), fmt.Sprint(int(state)))
	}
}
