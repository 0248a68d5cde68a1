// Package systemlog keeps a bounded, in-memory log of operational events for
// diagnostics. Entries are lost on restart; it is not an audit trail.
package systemlog

import (
	"strconv"
	"sync"
	"time"

	"github.com/baladiya/citizen-portal/internal/shared"
)

// DefaultCapacity is the number of entries retained before FIFO eviction.
const DefaultCapacity = 500

// Level is the severity of an entry.
type Level string

// Severities.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelDebug   Level = "debug"
)

// Levels lists every severity.
var Levels = []Level{LevelInfo, LevelWarning, LevelError, LevelDebug}

// ParseLevel returns the Level named by raw.
func ParseLevel(raw string) (Level, bool) {
	for _, l := range Levels {
		if string(l) == raw {
			return l, true
		}
	}
	return "", false
}

// Entry is one diagnostic event.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Buffer is a mutex-guarded ring of entries with FIFO eviction.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	size    int
	seq     uint64
	now     func() time.Time
}

// NewBuffer returns a Buffer holding at most capacity entries.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{entries: make([]Entry, capacity), now: time.Now}
}

// Capacity returns the maximum number of retained entries.
func (b *Buffer) Capacity() int {
	return len(b.entries)
}

// Len returns the number of retained entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Add appends an entry, evicting the oldest once the buffer is full.
func (b *Buffer) Add(level Level, source, message string, details map[string]any) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	entry := Entry{
		ID:        strconv.FormatUint(b.seq, 10),
		Timestamp: b.now().UTC(),
		Level:     level,
		Source:    source,
		Message:   message,
		Details:   details,
	}
	idx := (b.head + b.size) % len(b.entries)
	b.entries[idx] = entry
	if b.size < len(b.entries) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.entries)
	}
	return entry
}

// Info adds an info entry.
func (b *Buffer) Info(source, message string, details map[string]any) Entry {
	return b.Add(LevelInfo, source, message, details)
}

// Warning adds a warning entry.
func (b *Buffer) Warning(source, message string, details map[string]any) Entry {
	return b.Add(LevelWarning, source, message, details)
}

// Error adds an error entry.
func (b *Buffer) Error(source, message string, details map[string]any) Entry {
	return b.Add(LevelError, source, message, details)
}

// Debug adds a debug entry.
func (b *Buffer) Debug(source, message string, details map[string]any) Entry {
	return b.Add(LevelDebug, source, message, details)
}

// All returns every retained entry, newest first.
func (b *Buffer) All() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Buffer) snapshotLocked() []Entry {
	out := make([]Entry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+b.size-1-i)%len(b.entries)]
	}
	return out
}

// Filter narrows a listing. Zero values mean "no constraint"; Page starts at 1.
type Filter struct {
	Level  Level
	Source string
	Limit  int
	Page   int
}

// Page is one page of a filtered listing.
type Page struct {
	Entries    []Entry `json:"logs"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

// DefaultPageSize applies when Filter.Limit is zero.
const DefaultPageSize = 50

// Filtered filters entries (newest first) then paginates them.
func (b *Buffer) Filtered(f Filter) Page {
	all := b.All()
	matched := all[:0]
	for _, e := range all {
		if f.Level != "" && e.Level != f.Level {
			continue
		}
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		matched = append(matched, e)
	}

	perPage := f.Limit
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	p := shared.NewPagination(f.Page, perPage, len(matched))
	start, end := p.Bounds()
	return Page{
		Entries:    matched[start:end],
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages,
	}
}

// Stats counts retained entries per level.
type Stats struct {
	Total   int `json:"total"`
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
	Debug   int `json:"debug"`
}

// Stats returns per-level counts of retained entries.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	var s Stats
	for i := 0; i < b.size; i++ {
		switch b.entries[(b.head+i)%len(b.entries)].Level {
		case LevelInfo:
			s.Info++
		case LevelWarning:
			s.Warning++
		case LevelError:
			s.Error++
		case LevelDebug:
			s.Debug++
		}
	}
	s.Total = b.size
	return s
}

// Clear drops every retained entry. IDs keep increasing.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		b.entries[i] = Entry{}
	}
	b.head, b.size = 0, 0
}
