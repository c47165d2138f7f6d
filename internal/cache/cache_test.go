package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetAndGet(t *testing.T) {
	c := NewMemory()

	c.Set("base_rate", 5.25, time.Minute)

	value, ok := c.Get("base_rate")
	assert.True(t, ok)
	assert.Equal(t, 5.25, value)
}

func TestMemory_GetMissingKey(t *testing.T) {
	c := NewMemory()

	value, ok := c.Get("inflation")
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemory_ExpiredKeyIsEvicted(t *testing.T) {
	c := NewMemory()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("crime:51.5,-0.1", 42, time.Hour)

	// Advance the clock past the expiry.
	current = current.Add(2 * time.Hour)

	value, ok := c.Get("crime:51.5,-0.1")
	assert.False(t, ok)
	assert.Nil(t, value)
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestMemory_IndependentExpiries(t *testing.T) {
	c := NewMemory()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("base_rate", 5.25, 24*time.Hour)
	c.Set("sales:SW1A1AA", "payload", time.Hour)

	current = current.Add(2 * time.Hour)

	_, salesOK := c.Get("sales:SW1A1AA")
	assert.False(t, salesOK)

	rate, rateOK := c.Get("base_rate")
	assert.True(t, rateOK)
	assert.Equal(t, 5.25, rate)
}

func TestMemory_OverwriteResetsExpiry(t *testing.T) {
	c := NewMemory()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("gdp_growth", 0.3, time.Hour)
	current = current.Add(30 * time.Minute)
	c.Set("gdp_growth", 0.6, time.Hour)
	current = current.Add(45 * time.Minute)

	value, ok := c.Get("gdp_growth")
	assert.True(t, ok)
	assert.Equal(t, 0.6, value)
}

func TestMemory_Delete(t *testing.T) {
	c := NewMemory()

	c.Set("unemployment", 4.2, time.Minute)
	c.Delete("unemployment")

	_, ok := c.Get("unemployment")
	assert.False(t, ok)
}

func TestMemory_Flush(t *testing.T) {
	c := NewMemory()

	c.Set("base_rate", 5.25, time.Hour)
	c.Set("sales:SW1A1AA", "payload", time.Hour)
	c.Flush()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("base_rate")
	assert.False(t, ok)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	c := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("key-%d", n%10), n, time.Minute)
		}(i)
		go func(n int) {
			defer wg.Done()
			c.Get(fmt.Sprintf("key-%d", n%10))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}
