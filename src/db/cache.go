package db

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"fopsmart-server/src/monobank"
)

// Monobank allows roughly one client-info call per 60 seconds per token, so
// responses are cached for that long and served from memory in between.
const clientInfoTTL = 60 * time.Second

// ClientInfoCache is a TTL cache of client-info responses keyed by user.
// Tokens themselves are never cached, only the response they fetched.
type ClientInfoCache struct {
	cache *ristretto.Cache
}

func NewClientInfoCache() (*ClientInfoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}
	return &ClientInfoCache{cache: cache}, nil
}

func (c *ClientInfoCache) Get(userID int64) (*monobank.ClientInfo, bool) {
	value, ok := c.cache.Get(userID)
	if !ok {
		return nil, false
	}
	info, ok := value.(*monobank.ClientInfo)
	return info, ok
}

func (c *ClientInfoCache) Set(userID int64, info *monobank.ClientInfo) {
	c.cache.SetWithTTL(userID, info, 1, clientInfoTTL)
}

func (c *ClientInfoCache) Del(userID int64) {
	c.cache.Del(userID)
}

// Wait flushes pending writes; only tests care.
func (c *ClientInfoCache) Wait() {
	c.cache.Wait()
}
