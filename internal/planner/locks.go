package planner

import "encoding/json"

// LockSet holds the food items the user pinned for the next generation.
// Items are keyed by their exact food name and kept in insertion order.
// The zero value is an empty set ready to use.
type LockSet struct {
	items []FoodItem
}

// NewLockSet builds a set from items. Later duplicates of a name are ignored.
func NewLockSet(items ...FoodItem) *LockSet {
	ls := &LockSet{}
	for _, it := range items {
		if !ls.IsLocked(it.Food) {
			ls.items = append(ls.items, it)
		}
	}
	return ls
}

// Toggle adds item if no item with the same name is locked, otherwise removes
// it. It reports whether the item is locked afterwards.
func (ls *LockSet) Toggle(item FoodItem) bool {
	if i := ls.index(item.Food); i >= 0 {
		ls.items = append(ls.items[:i:i], ls.items[i+1:]...)
		return false
	}
	ls.items = append(ls.items, item)
	return true
}

// IsLocked reports whether a food with exactly this name is locked.
func (ls *LockSet) IsLocked(food string) bool {
	return ls.index(food) >= 0
}

// Clear removes every lock.
func (ls *LockSet) Clear() {
	ls.items = nil
}

// Len returns the number of locked items.
func (ls *LockSet) Len() int {
	return len(ls.items)
}

// Items returns a copy of the locked items in the order they were locked.
func (ls *LockSet) Items() []FoodItem {
	out := make([]FoodItem, len(ls.items))
	copy(out, ls.items)
	return out
}

func (ls *LockSet) index(food string) int {
	for i, it := range ls.items {
		if it.Food == food {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the set as an array of food items.
func (ls LockSet) MarshalJSON() ([]byte, error) {
	if ls.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ls.items)
}

// UnmarshalJSON decodes an array of food items, dropping duplicate names.
func (ls *LockSet) UnmarshalJSON(b []byte) error {
	var items []FoodItem
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*ls = *NewLockSet(items...)
	return nil
}
