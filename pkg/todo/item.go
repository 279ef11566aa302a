package todo

import (
	"errors"
	"sort"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrVersionMismatch  = errors.New("version mismatch")
	ErrValidation       = errors.New("invalid request")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Item is a single todo entry. Version is the opaque token of the last persisted write and is
// empty for items that have never been stored.
type Item struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
	Order     int64  `json:"order" yaml:"order"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Patch carries only the fields a caller wants changed.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Order     *int64  `json:"order,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Completed == nil && p.Order == nil
}

// Apply returns a copy of item with the supplied fields overwritten.
func (p Patch) Apply(item Item) Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
	if p.Order != nil {
		item.Order = *p.Order
	}
	return item
}

type ReorderEntry struct {
	ID    string `json:"id"`
	Order int64  `json:"order"`
}

type ReorderStatus string

const (
	ReorderOK       ReorderStatus = "ok"
	ReorderConflict ReorderStatus = "conflict"
	ReorderNotFound ReorderStatus = "not_found"
	ReorderError    ReorderStatus = "error"
)

// ReorderResult reports the outcome of one entry of a reorder batch. Previous is the version the
// server read before writing; a client holding a different version missed another change.
type ReorderResult struct {
	ID       string        `json:"id"`
	Status   ReorderStatus `json:"status"`
	Order    int64         `json:"order"`
	Version  string        `json:"version,omitempty"`
	Previous string        `json:"previous,omitempty"`
}

// StatusFor classifies err into a reorder status.
func StatusFor(err error) ReorderStatus {
	switch {
	case err == nil:
		return ReorderOK
	case errors.Is(err, ErrVersionMismatch):
		return ReorderConflict
	case errors.Is(err, ErrNotFound):
		return ReorderNotFound
	default:
		return ReorderError
	}
}

// Less reports whether a sorts before b: by order, then by id.
func Less(a, b Item) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

// Sort orders items in place by (order, id).
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}
