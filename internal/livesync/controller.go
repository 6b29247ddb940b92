// Package livesync keeps a session's view of its boards, and of the lists
// and tasks of the selected board, current by following live query feeds.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"studyboard/internal/apperr"
	"studyboard/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Source opens live queries. Each deliver call carries the complete current
// result set.
type Source interface {
	WatchBoards(ctx context.Context, ownerID uuid.UUID, deliver func([]model.Board)) (io.Closer, error)
	WatchLists(ctx context.Context, boardID uuid.UUID, deliver func([]model.List)) (io.Closer, error)
	WatchTasks(ctx context.Context, boardID uuid.UUID, deliver func([]model.Task)) (io.Closer, error)
	// OwnsBoard answers Select before the first boards snapshot arrives.
	OwnsBoard(ctx context.Context, ownerID, boardID uuid.UUID) (bool, error)
}

type Bootstrapper interface {
	EnsureDefaultBoard(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error)
}

// Publisher receives every change. Publish is called with the controller
// locked and must not block.
type Publisher interface {
	Publish(change Change)
}

type State int

const (
	StateIdle State = iota
	StateBoardsSubscribed
	StateContentSubscribed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBoardsSubscribed:
		return "boards_subscribed"
	case StateContentSubscribed:
		return "content_subscribed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotSignedIn     = errors.New("livesync: not signed in")
	ErrAlreadySignedIn = errors.New("livesync: already signed in")
)

// Collection names what a Change is about.
type Collection string

const (
	CollectionBoards    Collection = "boards"
	CollectionLists     Collection = "lists"
	CollectionTasks     Collection = "tasks"
	CollectionSelection Collection = "selection"
)

// View is the current view model.
type View struct {
	OwnerID         uuid.UUID     `json:"owner_id"`
	State           State         `json:"state"`
	SelectedBoardID uuid.UUID     `json:"selected_board_id"`
	Boards          []model.Board `json:"boards"`
	Lists           []model.List  `json:"lists"`
	Tasks           []model.Task  `json:"tasks"`
}

// Change is published after every accepted snapshot or selection switch.
type Change struct {
	Collection Collection         `json:"collection"`
	Boards     *Diff[model.Board] `json:"boards,omitempty"`
	Lists      *Diff[model.List]  `json:"lists,omitempty"`
	Tasks      *Diff[model.Task]  `json:"tasks,omitempty"`
	View       View               `json:"view"`
}

// Controller follows one owner's boards and the content of one selected
// board. At most one lists feed and one tasks feed are open at a time.
type Controller struct {
	src  Source
	boot Bootstrapper
	pub  Publisher
	log  logrus.FieldLogger

	// switchMu serializes selection switches so feeds are torn down before
	// their replacements are opened. It is never acquired while holding mu.
	switchMu sync.Mutex

	mu         sync.Mutex
	ctx        context.Context
	state      State
	owner      uuid.UUID
	signin     uint64
	gen        uint64
	selected   uuid.UUID
	boards     []model.Board
	lists      []model.List
	tasks      []model.Task
	boardsFeed io.Closer
	listsFeed  io.Closer
	tasksFeed  io.Closer
}

func NewController(src Source, boot Bootstrapper, pub Publisher, log logrus.FieldLogger) *Controller {
	return &Controller{
		src:  src,
		boot: boot,
		pub:  pub,
		log:  log.WithField("component", "livesync"),
	}
}

// SignIn opens the boards feed for owner and makes sure the default board
// exists. Feeds live until SignOut or until ctx is done.
func (c *Controller) SignIn(ctx context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadySignedIn
	}
	c.signin++
	signin := c.signin
	c.ctx = ctx
	c.owner = ownerID
	c.state = StateBoardsSubscribed
	c.mu.Unlock()

	boards, err := c.src.WatchBoards(ctx, ownerID, func(b []model.Board) { c.onBoards(signin, b) })
	if err != nil {
		c.reset(signin)
		return fmt.Errorf("watch boards: %w", err)
	}

	c.mu.Lock()
	if c.signin != signin {
		c.mu.Unlock()
		closeFeed(c.log, boards)
		return nil
	}
	c.boardsFeed = boards
	c.mu.Unlock()

	if _, err := c.boot.EnsureDefaultBoard(ctx, ownerID); err != nil {
		c.SignOut()
		return fmt.Errorf("bootstrap: %w", err)
	}
	c.log.WithField("owner_id", ownerID).Debug("signed in")
	return nil
}

// SignOut closes every feed and returns to Idle. Nothing is published
// after it returns.
func (c *Controller) SignOut() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	boards := c.clearLocked()
	c.mu.Unlock()

	closeFeed(c.log, boards)

	c.switchMu.Lock()
	c.mu.Lock()
	lists, tasks := c.listsFeed, c.tasksFeed
	c.listsFeed, c.tasksFeed = nil, nil
	c.mu.Unlock()
	c.switchMu.Unlock()

	closeFeed(c.log, lists)
	closeFeed(c.log, tasks)
}

// Close is SignOut.
func (c *Controller) Close() error {
	c.SignOut()
	return nil
}

// Select switches the content feeds to boardID, which must be one of the
// owner's boards.
func (c *Controller) Select(boardID uuid.UUID) error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	known := c.boards != nil
	found := containsBoard(c.boards, boardID)
	signin, ctx, owner := c.signin, c.ctx, c.owner
	c.mu.Unlock()

	if !found && !known {
		owned, err := c.src.OwnsBoard(ctx, owner, boardID)
		if err != nil {
			return fmt.Errorf("check board owner: %w", err)
		}
		found = owned
	}
	if !found {
		return apperr.NotFound("board not found")
	}
	return c.switchTo(signin, boardID)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a copy of the current view model.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) onBoards(signin uint64, boards []model.Board) {
	c.mu.Lock()
	if c.signin != signin || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	d := diff(c.boards, boards, boardID)
	first := c.boards == nil
	c.boards = append([]model.Board{}, boards...)
	if first || !d.Empty() {
		c.pub.Publish(Change{Collection: CollectionBoards, Boards: &d, View: c.viewLocked()})
	}

	target := c.selected
	if target == uuid.Nil || !containsBoard(boards, target) {
		target = pickBoard(boards)
	}
	switching := target != c.selected
	c.mu.Unlock()

	if switching {
		if err := c.switchTo(signin, target); err != nil {
			c.log.WithError(err).WithField("board_id", target).Warn("board switch failed")
		}
	}
}

// switchTo tears down the content feeds of the previous board, then opens
// feeds for boardID. uuid.Nil leaves no content feeds open.
func (c *Controller) switchTo(signin uint64, boardID uuid.UUID) error {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.mu.Lock()
	if c.signin != signin || c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	if c.selected == boardID && (boardID == uuid.Nil || c.listsFeed != nil) {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	oldLists, oldTasks := c.listsFeed, c.tasksFeed
	c.listsFeed, c.tasksFeed = nil, nil
	c.selected = boardID
	c.lists, c.tasks = nil, nil
	c.state = StateBoardsSubscribed
	ctx := c.ctx
	c.pub.Publish(Change{Collection: CollectionSelection, View: c.viewLocked()})
	c.mu.Unlock()

	closeFeed(c.log, oldLists)
	closeFeed(c.log, oldTasks)

	if boardID == uuid.Nil {
		return nil
	}

	lists, err := c.src.WatchLists(ctx, boardID, func(l []model.List) { c.onLists(gen, boardID, l) })
	if err != nil {
		return fmt.Errorf("watch lists: %w", err)
	}
	tasks, err := c.src.WatchTasks(ctx, boardID, func(t []model.Task) { c.onTasks(gen, boardID, t) })
	if err != nil {
		closeFeed(c.log, lists)
		return fmt.Errorf("watch tasks: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen || c.signin != signin {
		c.mu.Unlock()
		closeFeed(c.log, lists)
		closeFeed(c.log, tasks)
		return nil
	}
	c.listsFeed, c.tasksFeed = lists, tasks
	c.state = StateContentSubscribed
	c.mu.Unlock()

	c.log.WithField("board_id", boardID).Debug("board selected")
	return nil
}

func (c *Controller) onLists(gen uint64, boardID uuid.UUID, lists []model.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.selected != boardID {
		c.log.WithField("board_id", boardID).Debug("stale lists snapshot dropped")
		return
	}
	sorted := sortLists(lists)
	d := diff(c.lists, sorted, listID)
	c.lists = sorted
	c.tasks = sortTasks(c.tasks, c.lists)
	c.pub.Publish(Change{Collection: CollectionLists, Lists: &d, View: c.viewLocked()})
}

func (c *Controller) onTasks(gen uint64, boardID uuid.UUID, tasks []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.selected != boardID {
		c.log.WithField("board_id", boardID).Debug("stale tasks snapshot dropped")
		return
	}
	sorted := sortTasks(tasks, c.lists)
	d := diff(c.tasks, sorted, taskID)
	c.tasks = sorted
	c.pub.Publish(Change{Collection: CollectionTasks, Tasks: &d, View: c.viewLocked()})
}

// clearLocked returns the controller to Idle and hands back the boards feed
// for closing. Content feeds are left to the caller under switchMu.
func (c *Controller) clearLocked() io.Closer {
	boards := c.boardsFeed
	c.boardsFeed = nil
	c.state = StateIdle
	c.signin++
	c.gen++
	c.selected = uuid.Nil
	c.owner = uuid.Nil
	c.boards, c.lists, c.tasks = nil, nil, nil
	c.ctx = nil
	return boards
}

func (c *Controller) reset(signin uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signin == signin {
		c.clearLocked()
	}
}

func (c *Controller) viewLocked() View {
	return View{
		OwnerID:         c.owner,
		State:           c.state,
		SelectedBoardID: c.selected,
		Boards:          append([]model.Board(nil), c.boards...),
		Lists:           append([]model.List(nil), c.lists...),
		Tasks:           append([]model.Task(nil), c.tasks...),
	}
}

func containsBoard(boards []model.Board, id uuid.UUID) bool {
	for _, b := range boards {
		if b.ID == id {
			return true
		}
	}
	return false
}

// pickBoard prefers the default board, then the first one.
func pickBoard(boards []model.Board) uuid.UUID {
	for _, b := range boards {
		if b.IsDefault {
			return b.ID
		}
	}
	if len(boards) > 0 {
		return boards[0].ID
	}
	return uuid.Nil
}

func closeFeed(log logrus.FieldLogger, feed io.Closer) {
	if feed == nil {
		return
	}
	if err := feed.Close(); err != nil {
		log.WithError(err).Debug("feed close failed")
	}
}
