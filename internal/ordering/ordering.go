// Package ordering assigns positions to sibling Lists and Tasks.
package ordering

// NextPosition returns the position for an item appended after siblings:
// one past the current maximum, or 0 when there are no siblings. Gaps left
// by deletions are never reused.
func NextPosition(siblings []int) int {
	if len(siblings) == 0 {
		return 0
	}
	highest := siblings[0]
	for _, p := range siblings[1:] {
		if p > highest {
			highest = p
		}
	}
	return highest + 1
}
