package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_GetSet(t *testing.T) {
	c := newTTLCache[string](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("moga", "punjab")
	v, ok := c.Get("moga")
	assert.True(t, ok)
	assert.Equal(t, "punjab", v)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := newTTLCache[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", 42)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_OverwriteRefreshesExpiry(t *testing.T) {
	c := newTTLCache[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(30 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
