package sessionset

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New()

	assert.False(t, s.Has("ses_1"))
	s.Add("ses_1")
	assert.True(t, s.Has("ses_1"))
	s.Add("ses_1")
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.TryAdd("ses_2"))
	assert.False(t, s.TryAdd("ses_2"))
	assert.Equal(t, 2, s.Len())
}

func TestTryAddConcurrent(t *testing.T) {
	s := New()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAdd("ses_same") {
				wins.Add(1)
			}
			s.Add(fmt.Sprintf("ses_%d", i))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 51, s.Len())
}
