package grid_test

import (
	"sync"
	"testing"

	"github.com/ogeth777/baseworld/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridStore(t *testing.T) {
	t.Run("paint out of range", testPaintOutOfRange)
	t.Run("paint is monotonic", testPaintIsMonotonic)
	t.Run("repaint overwrites attribution", testRepaintOverwritesAttribution)
	t.Run("concurrent repaint is last write wins", testConcurrentRepaint)
	t.Run("snapshot is a deep copy", testSnapshotIsDeepCopy)
	t.Run("restore", testRestore)
}

func testPaintOutOfRange(t *testing.T) {
	s := grid.New(10)
	_, err := s.Paint(-1, "x", "")
	assert.ErrorIs(t, err, grid.ErrOutOfRange)
	_, err = s.Paint(10, "x", "")
	assert.ErrorIs(t, err, grid.ErrOutOfRange)
	assert.Equal(t, 0, s.CountPainted())
}

func testPaintIsMonotonic(t *testing.T) {
	s := grid.New(100)
	for i := 0; i < 100; i += 3 {
		_, err := s.Paint(i, "a", "")
		require.NoError(t, err)
	}
	before := s.Snapshot()

	// more paints, including repaints, never unpaint anything
	for i := 0; i < 100; i += 2 {
		_, err := s.Paint(i, "b", "hi")
		require.NoError(t, err)
	}
	after := s.Snapshot()
	for i, v := range before.Painted {
		if v == 1 {
			assert.Equal(t, int8(1), after.Painted[i], "cell %d reverted", i)
		}
	}
	assert.Equal(t, 67, s.CountPainted())
}

func testRepaintOverwritesAttribution(t *testing.T) {
	s := grid.New(10)
	_, err := s.Paint(3, "alice", "gm")
	require.NoError(t, err)

	c, err := s.Paint(3, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, grid.Cell{Index: 3, Painted: true, Owner: "bob"}, c)

	got, err := s.Cell(3)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Owner)
	assert.Empty(t, got.Annotation)
	assert.Equal(t, 1, s.CountPainted())
}

func testConcurrentRepaint(t *testing.T) {
	s := grid.New(10)
	writers := map[string]string{
		"alice": "from alice",
		"bob":   "from bob",
		"carol": "from carol",
	}

	var wg sync.WaitGroup
	for owner, note := range writers {
		wg.Add(1)
		go func(owner, note string) {
			defer wg.Done()
			_, _ = s.Paint(5, owner, note)
		}(owner, note)
	}
	wg.Wait()

	c, err := s.Cell(5)
	require.NoError(t, err)
	// whichever write came last, owner and annotation come from the same write
	assert.Equal(t, writers[c.Owner], c.Annotation)
}

func testSnapshotIsDeepCopy(t *testing.T) {
	s := grid.New(4)
	_, err := s.Paint(1, "a", "x")
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Painted[2] = 1
	snap.Owners[1] = "mallory"

	c, _ := s.Cell(2)
	assert.False(t, c.Painted)
	c, _ = s.Cell(1)
	assert.Equal(t, "a", c.Owner)
}

func testRestore(t *testing.T) {
	s := grid.New(4)
	err := s.Restore(grid.Snapshot{Painted: []int8{1, 0}})
	assert.ErrorIs(t, err, grid.ErrSizeMismatch)

	err = s.Restore(grid.Snapshot{
		Painted:     []int8{1, 0, 1, 0},
		Owners:      map[int]string{0: "a", 2: "b", 99: "ghost"},
		Annotations: map[int]string{2: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.CountPainted())
	assert.Equal(t, 0.5, s.PaintedFraction())

	snap := s.Snapshot()
	assert.NotContains(t, snap.Owners, 99)
	assert.Equal(t, "hello", snap.Annotations[2])
}

func TestValidateAnnotation(t *testing.T) {
	assert.NoError(t, grid.ValidateAnnotation(""))
	assert.NoError(t, grid.ValidateAnnotation("gm from base"))
	assert.NoError(t, grid.ValidateAnnotation("ünïcödé ok"))
	assert.ErrorIs(t, grid.ValidateAnnotation("this annotation is way too long"), grid.ErrAnnotationTooLong)
	assert.ErrorIs(t, grid.ValidateAnnotation("<b>bold</b>"), grid.ErrAnnotationMarkup)
	assert.ErrorIs(t, grid.ValidateAnnotation("line\nbreak"), grid.ErrAnnotationMarkup)
}
