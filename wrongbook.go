package quizdrill

import (
	"encoding/json"
	"sort"
)

// WrongBook holds the ids of questions that were answered wrong and have not
// been promoted out yet. The zero value is an empty book.
type WrongBook struct {
	ids map[int]struct{}
}

// NewWrongBook creates a wrong book holding the given ids
func NewWrongBook(ids ...int) WrongBook {
	wb := WrongBook{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		wb.ids[id] = struct{}{}
	}
	return wb
}

// Add puts a question into the book
func (wb *WrongBook) Add(id int) {
	if wb.ids == nil {
		wb.ids = make(map[int]struct{})
	}
	wb.ids[id] = struct{}{}
}

// Remove takes a question out of the book
func (wb *WrongBook) Remove(id int) {
	delete(wb.ids, id)
}

// Contains reports whether the question is in the book
func (wb *WrongBook) Contains(id int) bool {
	_, ok := wb.ids[id]
	return ok
}

// Len returns the number of questions in the book
func (wb *WrongBook) Len() int {
	return len(wb.ids)
}

// IDs returns the ids in ascending order
func (wb *WrongBook) IDs() []int {
	ids := make([]int, 0, len(wb.ids))
	for id := range wb.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clear empties the book
func (wb *WrongBook) Clear() {
	wb.ids = nil
}

func (wb WrongBook) MarshalJSON() ([]byte, error) {
	return json.Marshal(wb.IDs())
}

func (wb *WrongBook) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*wb = NewWrongBook(ids...)
	return nil
}
