// internal/registers/cache_test.go
package registers

import (
	"sync"
	"testing"
)

func TestCache_GetUnknown(t *testing.T) {
	c := NewCache()

	if v := c.Get(4200); v.Known {
		t.Fatalf("expected unknown, got %+v", v)
	}
}

func TestCache_PutRange(t *testing.T) {
	c := NewCache()
	c.PutRange(2600, []uint16{5, 0, 7})

	want := map[Address]uint16{2600: 5, 2601: 0, 2602: 7}
	for addr, w := range want {
		v := c.Get(addr)
		if !v.Known || v.Word != w {
			t.Fatalf("addr %d: got %+v want %d", addr, v, w)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
}

func TestCache_LaterRangeWins(t *testing.T) {
	c := NewCache()
	c.PutRange(10, []uint16{1, 1, 1})
	c.PutRange(11, []uint16{2})

	if v := c.Get(11); v.Word != 2 {
		t.Fatalf("overlap: got %d want 2", v.Word)
	}
	if v := c.Get(12); v.Word != 1 {
		t.Fatalf("untouched: got %d want 1", v.Word)
	}
}

func TestCache_PutRangeDoesNotWrap(t *testing.T) {
	c := NewCache()
	c.PutRange(0xFFFE, []uint16{1, 2, 3})

	if v := c.Get(0); v.Known {
		t.Fatalf("address 0 must stay unknown, got %+v", v)
	}
	if v := c.Get(0xFFFF); v.Word != 2 {
		t.Fatalf("0xFFFF: got %+v", v)
	}
}

func TestCache_SnapshotIsCopy(t *testing.T) {
	c := NewCache()
	c.Put(1, 10)

	snap := c.Snapshot()
	snap[1] = 99

	if v := c.Get(1); v.Word != 10 {
		t.Fatalf("snapshot mutation leaked into cache: %d", v.Word)
	}
}

// Readers must never observe half of a batch.
func TestCache_PutRangeAtomic(t *testing.T) {
	c := NewCache()
	c.PutRange(0, []uint16{0, 0, 0, 0})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint16(1); i < 500; i++ {
			c.PutRange(0, []uint16{i, i, i, i})
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		snap := c.Snapshot()
		first := snap[0]
		for a := Address(1); a < 4; a++ {
			if snap[a] != first {
				t.Fatalf("torn batch: %v", snap)
			}
		}
	}
}

func TestRange_End(t *testing.T) {
	r := Range{Start: 4200, Count: 79}
	if r.End() != 4278 {
		t.Fatalf("end: got %d want 4278", r.End())
	}
}
