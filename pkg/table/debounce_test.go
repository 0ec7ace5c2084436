package table

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	var calls int64
	d := NewDebouncer(100*time.Millisecond, func() {
		atomic.AddInt64(&calls, 1)
	})

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestDebouncerFiresAfterWindow(t *testing.T) {
	var calls int64
	d := NewDebouncer(50*time.Millisecond, func() {
		atomic.AddInt64(&calls, 1)
	})

	d.Trigger()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestDebouncerStop(t *testing.T) {
	var calls int64
	d := NewDebouncer(30*time.Millisecond, func() {
		atomic.AddInt64(&calls, 1)
	})

	d.Trigger()
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
}
