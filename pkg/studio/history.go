package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryItem is one entry in the edit history: the image it produced and
// the instruction that produced it.
type HistoryItem struct {
	ID          string
	Image       string
	Instruction string
	CreatedAt   time.Time
}

// History is the ordered sequence of edits with an undo/redo position.
// Pushing a new edit truncates any redo branch.
type History struct {
	mu    sync.Mutex
	items []HistoryItem
	index int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{index: -1}
}

// Push records a new item after the current position, discarding anything
// that was ahead of it, and returns the item.
func (h *History) Push(image, instruction string) HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	item := HistoryItem{
		ID:          uuid.NewString(),
		Image:       image,
		Instruction: instruction,
		CreatedAt:   time.Now(),
	}
	h.items = append(h.items[:h.index+1], item)
	h.index = len(h.items) - 1
	return item
}

// Current returns the item at the current position.
func (h *History) Current() (HistoryItem, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return HistoryItem{}, false
	}
	return h.items[h.index], true
}

// Undo moves the position back one item and returns the item now current.
func (h *History) Undo() (HistoryItem, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return HistoryItem{}, false
	}
	h.index--
	return h.items[h.index], true
}

// Redo moves the position forward one item and returns the item now current.
func (h *History) Redo() (HistoryItem, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.items)-1 {
		return HistoryItem{}, false
	}
	h.index++
	return h.items[h.index], true
}

// Index returns the current position, -1 when empty.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Len returns the number of items.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// Items returns a copy of the full sequence.
func (h *History) Items() []HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}
