package grid

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// MaxAnnotationLength is the maximum number of characters of a cell annotation.
const MaxAnnotationLength = 20

var (
	ErrOutOfRange        = errors.New("cell index out of range")
	ErrAnnotationTooLong = fmt.Errorf("annotation longer than %d characters", MaxAnnotationLength)
	ErrAnnotationMarkup  = errors.New("annotation contains markup or control characters")
	ErrSizeMismatch      = errors.New("snapshot size does not match the grid size")
)

// Cell is the state of a single grid cell.
type Cell struct {
	Index      int    `json:"index"`
	Painted    bool   `json:"painted"`
	Owner      string `json:"owner,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// Snapshot is a deep copy of the full grid state.
// Painted holds one entry per cell, 1 meaning painted.
type Snapshot struct {
	Painted     []int8
	Owners      map[int]string
	Annotations map[int]string
}

// Store is the authoritative in-memory grid. Paintedness is monotonic,
// attribution (owner and annotation) is last-write-wins.
type Store struct {
	mu          sync.RWMutex
	painted     []int8
	owners      map[int]string
	annotations map[int]string
	count       int
}

// New returns a store of size cells, all unpainted.
func New(size int) *Store {
	return &Store{
		painted:     make([]int8, size),
		owners:      map[int]string{},
		annotations: map[int]string{},
	}
}

func (s *Store) Size() int {
	return len(s.painted)
}

// ValidIndex reports whether index addresses a cell of the store.
func (s *Store) ValidIndex(index int) bool {
	return index >= 0 && index < len(s.painted)
}

// Paint marks the cell painted and overwrites its owner and annotation.
// An empty annotation clears any previous one.
func (s *Store) Paint(index int, owner, annotation string) (Cell, error) {
	if !s.ValidIndex(index) {
		return Cell{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s.painted))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.painted[index] == 0 {
		s.painted[index] = 1
		s.count++
	}
	s.owners[index] = owner
	if annotation == "" {
		delete(s.annotations, index)
	} else {
		s.annotations[index] = annotation
	}

	return Cell{
		Index:      index,
		Painted:    true,
		Owner:      owner,
		Annotation: annotation,
	}, nil
}

// Cell returns the current state of the cell at index.
func (s *Store) Cell(index int) (Cell, error) {
	if !s.ValidIndex(index) {
		return Cell{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s.painted))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Cell{
		Index:      index,
		Painted:    s.painted[index] != 0,
		Owner:      s.owners[index],
		Annotation: s.annotations[index],
	}, nil
}

func (s *Store) CountPainted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// PaintedFraction returns the painted share of the grid in [0,1].
func (s *Store) PaintedFraction() float64 {
	if len(s.painted) == 0 {
		return 0
	}
	return float64(s.CountPainted()) / float64(len(s.painted))
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Painted:     make([]int8, len(s.painted)),
		Owners:      make(map[int]string, len(s.owners)),
		Annotations: make(map[int]string, len(s.annotations)),
	}
	copy(snap.Painted, s.painted)
	for k, v := range s.owners {
		snap.Owners[k] = v
	}
	for k, v := range s.annotations {
		snap.Annotations[k] = v
	}
	return snap
}

// Annotations returns a copy of the annotation map.
func (s *Store) Annotations() map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]string, len(s.annotations))
	for k, v := range s.annotations {
		out[k] = v
	}
	return out
}

// Restore replaces the whole state with the given snapshot. Attribution for
// indices outside the grid is dropped.
func (s *Store) Restore(snap Snapshot) error {
	if len(snap.Painted) != len(s.painted) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrSizeMismatch, len(snap.Painted), len(s.painted))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.count = 0
	for i, v := range snap.Painted {
		if v != 0 {
			s.painted[i] = 1
			s.count++
		} else {
			s.painted[i] = 0
		}
	}
	s.owners = make(map[int]string, len(snap.Owners))
	for k, v := range snap.Owners {
		if s.ValidIndex(k) {
			s.owners[k] = v
		}
	}
	s.annotations = make(map[int]string, len(snap.Annotations))
	for k, v := range snap.Annotations {
		if s.ValidIndex(k) {
			s.annotations[k] = v
		}
	}
	return nil
}

// ValidateAnnotation checks the length and content of a user supplied annotation.
func ValidateAnnotation(annotation string) error {
	if !utf8.ValidString(annotation) {
		return ErrAnnotationMarkup
	}
	if utf8.RuneCountInString(annotation) > MaxAnnotationLength {
		return ErrAnnotationTooLong
	}
	if strings.ContainsAny(annotation, "<>") {
		return ErrAnnotationMarkup
	}
	for _, r := range annotation {
		if unicode.IsControl(r) {
			return ErrAnnotationMarkup
		}
	}
	return nil
}
