package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpExecutionSuccess, 10*time.Millisecond)
	c.RecordTiming(OpExecutionSuccess, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.ExecutionSuccess)
	assert.Equal(t, int64(2), snap.ExecutionSuccess.Count)
	assert.Equal(t, int64(40), snap.ExecutionSuccess.TotalTimeMs)
	assert.Equal(t, 20.0, snap.ExecutionSuccess.AvgTimeMs)
	assert.Equal(t, int64(10), snap.ExecutionSuccess.MinTimeMs)
	assert.Equal(t, int64(30), snap.ExecutionSuccess.MaxTimeMs)
	assert.Nil(t, snap.ExecutionError, "no data means no snapshot")
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	c.Add(CountEntities, 3)
	c.Add(CountEntities, 2)
	c.Add(CountCorrelations, 1)
	c.Add(CountCorrelations, 0)

	snap := c.Snapshot()
	assert.Equal(t, int64(5), snap.EntitiesTagged)
	assert.Equal(t, int64(1), snap.CorrelationsFound)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpStoreWrite, time.Second)
	c.Add(CountEntities, 1)
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpStoreQuery, time.Millisecond)
			c.Add(CountEntities, 1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.StoreQuery.Count)
	assert.Equal(t, int64(50), snap.EntitiesTagged)
}

func TestCollector_ZeroDurationIsMin(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpStoreWrite, 5*time.Millisecond)
	c.RecordTiming(OpStoreWrite, 0)

	snap := c.Snapshot()
	require.NotNil(t, snap.StoreWrite)
	assert.Equal(t, int64(0), snap.StoreWrite.MinTimeMs)
	assert.Equal(t, int64(5), snap.StoreWrite.MaxTimeMs)
}
