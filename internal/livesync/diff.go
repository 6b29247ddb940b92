package livesync

import (
	"sort"

	"studyboard/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// Diff lists the entities that changed between two snapshots of one
// collection.
type Diff[T any] struct {
	Added   []T         `json:"added,omitempty"`
	Updated []T         `json:"updated,omitempty"`
	Removed []uuid.UUID `json:"removed,omitempty"`
}

func (d Diff[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

func diff[T any](prev, next []T, id func(T) uuid.UUID) Diff[T] {
	var d Diff[T]
	seen := make(map[uuid.UUID]T, len(prev))
	for _, item := range prev {
		seen[id(item)] = item
	}
	for _, item := range next {
		old, ok := seen[id(item)]
		switch {
		case !ok:
			d.Added = append(d.Added, item)
		case !cmp.Equal(old, item):
			d.Updated = append(d.Updated, item)
		}
		delete(seen, id(item))
	}
	for _, item := range prev {
		if _, gone := seen[id(item)]; gone {
			d.Removed = append(d.Removed, id(item))
		}
	}
	return d
}

func boardID(b model.Board) uuid.UUID { return b.ID }
func listID(l model.List) uuid.UUID   { return l.ID }
func taskID(t model.Task) uuid.UUID   { return t.ID }

func sortLists(lists []model.List) []model.List {
	out := append([]model.List(nil), lists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// sortTasks orders tasks by the position of their list, then by their own
// position.
func sortTasks(tasks []model.Task, lists []model.List) []model.Task {
	rank := make(map[uuid.UUID]int, len(lists))
	for _, l := range lists {
		rank[l.ID] = l.Position
	}
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := rank[out[i].ListID], rank[out[j].ListID]; ri != rj {
			return ri < rj
		}
		return out[i].Position < out[j].Position
	})
	return out
}
