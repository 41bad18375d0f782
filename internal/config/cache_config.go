package config

import "time"

type CacheConfig interface {
	GetStaleTime() time.Duration
	GetMaxRetries() int
	GetRetryBaseDelay() time.Duration
	GetMaxRetryDelay() time.Duration
	GetCacheCapacity() int
}

type Cache struct{}

var _ CacheConfig = Cache{}

func (Cache) GetStaleTime() time.Duration {
	return 5 * time.Minute
}

func (Cache) GetMaxRetries() int {
	return 1
}

func (Cache) GetRetryBaseDelay() time.Duration {
	return 1 * time.Second
}

func (Cache) GetMaxRetryDelay() time.Duration {
	return 30 * time.Second
}

func (Cache) GetCacheCapacity() int {
	return 256
}
