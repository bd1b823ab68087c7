package cache

import "time"

// Cache is a short-ttl response cache for the hot query endpoints. Entries
// expire rather than invalidate, so readers see at most ttl-old data.
type Cache struct {
	Cache ICache
}

type ICache interface {
	Set(key string, entry []byte) error

	Get(key string) ([]byte, error)

	Delete(key string) error
}

func NewLocalCache(allKeysExpTime time.Duration) (*Cache, error) {
	cache, err := NewBigCache(allKeysExpTime)
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: cache}, nil
}
