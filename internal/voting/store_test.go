package voting

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore(5, 2, time.Minute)

	_, _, ok := s.Observe("s1", Vote{IdentityKey: "A"})
	assert.False(t, ok)
	_, _, ok = s.Observe("s2", Vote{IdentityKey: "A"})
	assert.False(t, ok, "votes from another session must not count")

	_, res, ok := s.Observe("s1", Vote{IdentityKey: "A", Confidence: 0.9})
	require.True(t, ok)
	assert.Equal(t, "A", res.IdentityKey)
	assert.Equal(t, 0, s.Get("s1").Len())
	assert.Equal(t, 1, s.Get("s2").Len())
}

func TestStore_Dismiss(t *testing.T) {
	s := NewStore(5, 2, time.Minute)
	s.Observe("s1", Vote{IdentityKey: "A"})
	s.Dismiss("s1")

	_, _, ok := s.Observe("s1", Vote{IdentityKey: "A"})
	assert.False(t, ok, "dismissal clears earlier votes")
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(5, 2, 50*time.Millisecond)
	s.Observe("s1", Vote{IdentityKey: "A"})
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 0, s.Get("s1").Len())
}

func TestStore_ConcurrentObserve(t *testing.T) {
	s := NewStore(100, 100, time.Minute)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Observe("shared", Vote{IdentityKey: fmt.Sprintf("%d", i)})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Get("shared").Len())
}
