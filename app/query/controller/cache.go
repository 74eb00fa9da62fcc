package controller

import "time"

type cacheEntry struct {
	payload   interface{}
	expiresAt time.Time
}

func (c *Controller) cached(key string) (interface{}, bool) {
	entry, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.cache.Delete(key)
		return nil, false
	}
	return entry.payload, true
}

func (c *Controller) store(key string, payload interface{}) {
	if c.App.CacheTTL <= 0 {
		return
	}
	c.cache.Store(key, cacheEntry{payload: payload, expiresAt: time.Now().Add(c.App.CacheTTL)})
}
