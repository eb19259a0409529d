package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAbsentIsIdle(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	assert.Equal(t, IdleState(), s.Get(1))
	assert.False(t, s.Get(1).Pending())
}

func TestMemoryStoreSetGetClear(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	s.Set(1, FieldEdit(7, FieldPrice))
	s.Set(2, BroadcastText())

	assert.Equal(t, State{Kind: AwaitingFieldEdit, ProductID: 7, Field: FieldPrice}, s.Get(1))
	assert.Equal(t, AwaitingBroadcastText, s.Get(2).Kind)

	s.Clear(1)
	assert.Equal(t, IdleState(), s.Get(1))
	assert.Equal(t, AwaitingBroadcastText, s.Get(2).Kind, "other users untouched")

	s.Set(2, IdleState())
	assert.Equal(t, 0, s.Len(), "setting idle drops the entry")
}

func TestMemoryStoreTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Set(1, ProductFields())
	s.Set(2, ProductFields())
	now = now.Add(30 * time.Second)
	assert.Equal(t, AwaitingProductFields, s.Get(1).Kind)

	now = now.Add(31 * time.Second)
	assert.Equal(t, IdleState(), s.Get(1), "lazily evicted")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, ok := ParseField(string(f))
		require.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseField("stock")
	assert.False(t, ok)
	assert.Equal(t, "awaiting_field_edit(7,price)", FieldEdit(7, FieldPrice).String())
}

func TestLockerSerializesPerUser(t *testing.T) {
	l := NewLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Held(), "locks are released from the map")
}

func TestLockerIndependentUsers(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock(2)
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 blocked by user 1")
	}
	unlockA()
	unlockA()
	assert.Equal(t, 0, l.Held())
}
