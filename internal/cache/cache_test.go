package cache

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetMissThenHit(t *testing.T) {
	c := New(1 << 20)
	key := Key{Level: 0, Col: 3, Row: 7}

	if _, _, ok := c.Get(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	buf := []byte{1, 2, 3, 4}
	e := c.Put(key, buf)
	e.Release()

	got, e2, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	defer e2.Release()
	if !bytes.Equal(got, buf) {
		t.Errorf("got %v, want %v", got, buf)
	}
}

func TestKeysAreDistinct(t *testing.T) {
	c := New(1 << 20)
	c.Put(Key{0, 1, 2}, []byte{1}).Release()
	c.Put(Key{1, 1, 2}, []byte{2}).Release()

	got, e, ok := c.Get(Key{1, 1, 2})
	if !ok || got[0] != 2 {
		t.Fatalf("wrong buffer for key: ok=%v got=%v", ok, got)
	}
	e.Release()
}

func TestEviction(t *testing.T) {
	c := New(100)
	for i := int64(0); i < 10; i++ {
		c.Put(Key{0, i, 0}, make([]byte, 40)).Release()
	}
	if c.Used() > 100 {
		t.Errorf("used %d bytes, capacity 100", c.Used())
	}
	// The oldest keys are gone, the newest survives.
	if _, _, ok := c.Get(Key{0, 0, 0}); ok {
		t.Error("oldest entry should be evicted")
	}
	_, e, ok := c.Get(Key{0, 9, 0})
	if !ok {
		t.Fatal("newest entry should be resident")
	}
	e.Release()
}

func TestEvictedBufferSurvivesHandle(t *testing.T) {
	c := New(50)
	buf := []byte{9, 9, 9}
	e := c.Put(Key{0, 0, 0}, buf)

	// Force eviction of the held entry.
	c.Put(Key{0, 1, 0}, make([]byte, 60)).Release()

	if _, _, ok := c.Get(Key{0, 0, 0}); ok {
		t.Error("entry should be evicted from the index")
	}
	if e.Bytes()[0] != 9 {
		t.Error("held buffer must stay valid after eviction")
	}
	e.Release()
}

func TestFetchSingleFlight(t *testing.T) {
	c := New(1 << 20)
	key := Key{Level: 2, Col: 0, Row: 0}

	var fills atomic.Int32
	var start, done sync.WaitGroup
	start.Add(1)

	const workers = 16
	bufs := make([][]byte, workers)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			buf, e, err := c.Fetch(key, func() ([]byte, error) {
				fills.Add(1)
				return []byte{0xab}, nil
			})
			if err != nil {
				t.Errorf("Fetch failed: %v", err)
				return
			}
			bufs[i] = buf
			e.Release()
		}(i)
	}
	start.Done()
	done.Wait()

	if n := fills.Load(); n != 1 {
		t.Errorf("fill ran %d times, want 1", n)
	}
	for i := 1; i < workers; i++ {
		if &bufs[i][0] != &bufs[0][0] {
			t.Error("concurrent fetchers observed different buffers")
			break
		}
	}
}

func TestFetchErrorNotCached(t *testing.T) {
	c := New(1 << 20)
	key := Key{Level: 0, Col: 0, Row: 0}
	boom := errors.New("decode failed")

	if _, _, err := c.Fetch(key, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed fill must not cache an entry")
	}

	// A later fetch re-attempts the fill.
	buf, e, err := c.Fetch(key, func() ([]byte, error) { return []byte{1}, nil })
	if err != nil || buf[0] != 1 {
		t.Fatalf("retry failed: buf=%v err=%v", buf, err)
	}
	e.Release()
}
