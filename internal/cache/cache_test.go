package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	c.Set(Key("balances", "g1"), 42, time.Minute)

	v, ok := c.Get(Key("balances", "g1"))
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get(Key("balances", "g2"))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New()

	c.Set("k", "v", 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_InvalidateGroup(t *testing.T) {
	c := New()

	c.Set(Key("balances", "g1"), 1, time.Minute)
	c.Set(Key("plan", "g1"), 2, time.Minute)
	c.Set(Key("balances", "g2"), 3, time.Minute)

	c.InvalidateGroup("g1")

	_, ok := c.Get(Key("balances", "g1"))
	assert.False(t, ok)
	_, ok = c.Get(Key("plan", "g1"))
	assert.False(t, ok)

	// Other groups survive.
	v, ok := c.Get(Key("balances", "g2"))
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_InvalidateAll(t *testing.T) {
	c := New()

	c.Set(Key("balances", "g1"), 1, time.Minute)
	c.Set(Key("plan", "g2"), 2, time.Minute)

	c.InvalidateAll()

	_, ok := c.Get(Key("balances", "g1"))
	assert.False(t, ok)
	_, ok = c.Get(Key("plan", "g2"))
	assert.False(t, ok)
}
