package catalog

// Library is one player's view of a piece set: which pieces are still in hand.
type Library struct {
	set  *PieceSet
	used map[int]struct{}
}

func NewLibrary(set *PieceSet) *Library {
	return &Library{
		set:  set,
		used: make(map[int]struct{}),
	}
}

func (that *Library) Set() *PieceSet {
	return that.set
}

func (that *Library) IsRemaining(id int) bool {
	if _, ok := that.set.pieces[id]; !ok {
		return false
	}
	_, used := that.used[id]
	return !used
}

// Remaining returns the unused ids in ascending order.
func (that *Library) Remaining() []int {
	remaining := make([]int, 0, len(that.set.ids)-len(that.used))
	for _, id := range that.set.ids {
		if _, used := that.used[id]; !used {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// RemainingSize sums the cell counts of the pieces still in hand.
func (that *Library) RemainingSize() int {
	total := 0
	for _, id := range that.Remaining() {
		total += that.set.pieces[id].Size()
	}
	return total
}

func (that *Library) Use(id int) {
	that.used[id] = struct{}{}
}

func (that *Library) Release(id int) {
	delete(that.used, id)
}
