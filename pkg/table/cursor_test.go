package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorTotalPages(t *testing.T) {
	c := NewCursor(1, 20, 47)
	assert.Equal(t, 3, c.TotalPages())
}

func TestCursorClampsLowPage(t *testing.T) {
	c := NewCursor(1, 20, 47)
	c.SetPage(0)
	assert.Equal(t, 1, c.Page)
}

func TestCursorClampsHighPage(t *testing.T) {
	c := NewCursor(1, 20, 47)
	c.SetPage(4)
	assert.Equal(t, 3, c.Page)
}

func TestCursorRejectsUnknownPageSize(t *testing.T) {
	c := NewCursor(1, 33, 47)
	assert.Equal(t, DefaultPageSize, c.PageSize)
}

func TestCursorPageSizeChangeReclamps(t *testing.T) {
	c := NewCursor(3, 20, 47)
	c.SetPageSize(50)
	assert.Equal(t, 50, c.PageSize)
	assert.Equal(t, 1, c.TotalPages())
	assert.Equal(t, 1, c.Page)
}

func TestCursorBoundaries(t *testing.T) {
	c := NewCursor(1, 20, 47)
	assert.False(t, c.HasPrev())
	assert.True(t, c.HasNext())

	c.SetPage(3)
	assert.True(t, c.HasPrev())
	assert.False(t, c.HasNext())

	assert.Equal(t, []int{1, 2, 3}, c.PageLinks())
	assert.Equal(t, 40, c.Offset())
}

func TestCursorEmptyTotal(t *testing.T) {
	c := NewCursor(5, 20, 0)
	assert.Equal(t, 1, c.TotalPages())
	assert.Equal(t, 1, c.Page)
}
