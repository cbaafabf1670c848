package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fediwall/internal/domain"
)

var t0 = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func post(id string, at time.Time, content string) domain.Post {
	return domain.Post{ID: id, URL: id, Date: at, Content: content}
}

func TestStore_PutIsIdempotent(t *testing.T) {
	s := NewStore()
	p := post("https://a.social/1", t0, "x")

	assert.True(t, s.Put(p))
	assert.True(t, s.Put(p))
	assert.Equal(t, 1, s.Len())
}

func TestStore_KeepsMostRecentInEitherOrder(t *testing.T) {
	older := post("https://a.social/1", t0, "old")
	newer := post("https://a.social/1", t0.Add(time.Minute), "new")

	s := NewStore()
	s.Put(older)
	assert.True(t, s.Put(newer))
	got, ok := s.Get(older.ID)
	require.True(t, ok)
	assert.Equal(t, "new", got.Content)

	s = NewStore()
	s.Put(newer)
	assert.False(t, s.Put(older))
	got, _ = s.Get(older.ID)
	assert.Equal(t, "new", got.Content)
}

func TestStore_ListNewestArrivalFirst(t *testing.T) {
	s := NewStore()
	s.Put(post("1", t0, ""))
	s.Put(post("2", t0, ""))
	s.Put(post("3", t0, ""))
	// A replacement keeps its original position.
	s.Put(post("1", t0.Add(time.Hour), "refreshed"))

	var ids []string
	for _, p := range s.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"3", "2", "1"}, ids)
}

func TestStore_ConcurrentPut(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Put(post(fmt.Sprintf("p%d", i), t0.Add(time.Duration(w)*time.Second), ""))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	assert.Len(t, s.List(), 50)
	for _, p := range s.List() {
		assert.Equal(t, t0.Add(7*time.Second), p.Date)
	}
}
