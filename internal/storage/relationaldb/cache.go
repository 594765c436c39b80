package relationaldb

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRepository keeps recently saved or fetched transactions in memory
// in front of another Repository. Account history is not cached.
type CachedRepository struct {
	Repository

	byHash *lru.Cache[Hash, *TransactionInfo]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedRepository wraps repo with an LRU of size entries
func NewCachedRepository(repo Repository, size int) (*CachedRepository, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[Hash, *TransactionInfo](size)
	if err != nil {
		return nil, err
	}
	return &CachedRepository{Repository: repo, byHash: cache}, nil
}

func (c *CachedRepository) SaveTransaction(ctx context.Context, txInfo *TransactionInfo) error {
	if err := c.Repository.SaveTransaction(ctx, txInfo); err != nil {
		return err
	}
	stored := *txInfo
	stored.Accounts = nil
	c.byHash.Add(txInfo.Hash, &stored)
	return nil
}

func (c *CachedRepository) GetTransaction(ctx context.Context, hash Hash) (*TransactionInfo, error) {
	if info, ok := c.byHash.Get(hash); ok {
		c.hits.Add(1)
		cp := *info
		return &cp, nil
	}
	c.misses.Add(1)

	info, err := c.Repository.GetTransaction(ctx, hash)
	if err != nil {
		return nil, err
	}
	cp := *info
	c.byHash.Add(hash, &cp)
	return info, nil
}

// Stats returns cache hits and misses
func (c *CachedRepository) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedRepository) Close() error {
	c.byHash.Purge()
	return c.Repository.Close()
}
