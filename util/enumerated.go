package util

import (
	"fmt"
	"sync"
)

// EnumSet interns strings into dense indexes in insertion order. Sets are
// owned by the model or descriptor that built them; once Frozen, adding an
// unseen value panics.
type EnumSet struct {
	mu     sync.RWMutex
	Enum   map[string]int
	Index  []string
	Frozen bool
}

// Add interns value, returning its index and whether it was new.
func (e *EnumSet) Add(value string) (int, bool) {
	if i, ok := e.IndexOf(value); ok {
		return i, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.Enum[value]; ok {
		return i, false
	}
	if e.Frozen {
		panic("Cannot add value to frozen enum set: " + value)
	}
	i := len(e.Index)
	e.Enum[value] = i
	e.Index = append(e.Index, value)
	return i, true
}

func (e *EnumSet) IndexOf(value string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.Enum[value]
	return i, ok
}

// IndexOr is IndexOf with fallback for unknown values.
func (e *EnumSet) IndexOr(value string, fallback int) int {
	if i, ok := e.IndexOf(value); ok {
		return i
	}
	return fallback
}

func (e *EnumSet) ValueOf(index int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.Index) {
		panic(fmt.Sprintf("Unknown index requested: %v of %v", index, len(e.Index)))
	}
	return e.Index[index]
}

func (e *EnumSet) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.Index)
}

// Values returns a copy of the interned strings in index order.
func (e *EnumSet) Values() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.Index...)
}

func NewEnumSet(capacity int) *EnumSet {
	return &EnumSet{
		Enum:  make(map[string]int, capacity),
		Index: make([]string, 0, capacity),
	}
}
