// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/puller/index"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
	util "tezos_etl/utils"
)

const (
	MODE_SYNC = "sync"

	maxBackoff = 5 * time.Minute
)

type CrawlerConfig struct {
	DB      *gorm.DB
	Indexer *Indexer
	Client  *rpc.Client

	FetchConcurrency         int
	AccountsFetchConcurrency int
	BatchSize                int
	IdleInterval             time.Duration
	FeeWindow                int
	RetryAttempts            int
}

// Crawler walks the chain backward from the node head and keeps the
// database in sync. One goroutine runs the cycle loop; all fan-out
// concurrency lives in the rpc layer.
type Crawler struct {
	db      *gorm.DB
	indexer *Indexer
	client  *rpc.Client

	fetchConcurrency    int
	accountsConcurrency int
	batchSize           int
	idleInterval        time.Duration
	feeWindow           int
	retryAttempts       int

	tip  *models.ChainTip
	mu   sync.Mutex
	wg   sync.WaitGroup
	quit context.CancelFunc
}

func NewCrawler(cfg CrawlerConfig) *Crawler {
	c := &Crawler{
		db:                  cfg.DB,
		indexer:             cfg.Indexer,
		client:              cfg.Client,
		fetchConcurrency:    cfg.FetchConcurrency,
		accountsConcurrency: cfg.AccountsFetchConcurrency,
		batchSize:           cfg.BatchSize,
		idleInterval:        cfg.IdleInterval,
		feeWindow:           cfg.FeeWindow,
		retryAttempts:       cfg.RetryAttempts,
	}
	if c.fetchConcurrency <= 0 {
		c.fetchConcurrency = 5
	}
	if c.accountsConcurrency <= 0 {
		c.accountsConcurrency = 5
	}
	if c.batchSize <= 0 {
		c.batchSize = 500
	}
	if c.idleInterval <= 0 {
		c.idleInterval = 5 * time.Second
	}
	if c.feeWindow <= 0 {
		c.feeWindow = 1000
	}
	if c.retryAttempts <= 0 {
		c.retryAttempts = 3
	}
	return c
}

func (c *Crawler) GetIndexer() *Indexer {
	return c.indexer
}

func (c *Crawler) Tip() *models.ChainTip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

// Init loads the cached chain tip and reconciles it against the database;
// the database always wins.
func (c *Crawler) Init(ctx context.Context, mode string) error {
	if err := c.indexer.Init(ctx); err != nil {
		return err
	}
	tip, err := dbLoadChainTip(c.indexer.cachedb)
	if err != nil && err != models.ErrNoChainTip {
		return err
	}
	if tip == nil {
		tip = &models.ChainTip{Network: c.client.Network()}
	}
	max, err := c.indexer.MaxHeight()
	if err != nil {
		return err
	}
	if max < 0 {
		tip.BestHash = chain.ZeroBlockHash
		tip.BestHeight = -1
	} else if tip.BestHeight != max || !tip.BestHash.IsValid() {
		stored, err := c.indexer.BlockByHeight(ctx, max)
		if err != nil {
			return err
		}
		tip.BestHash = stored.Hash
		tip.BestHeight = stored.Height
		tip.BestTime = stored.Timestamp
	}
	c.tip = tip
	log.Infof("Crawler initialized at height %d.", tip.BestHeight)
	return nil
}

func (c *Crawler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.quit = cancel
	c.wg.Add(1)
	go c.syncLoop(ctx)
}

// Stop cancels the loop and waits for the current transaction to finish,
// so no partial block remains.
func (c *Crawler) Stop(ctx context.Context) {
	if c.quit != nil {
		c.quit()
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warnf("crawler stop timed out: %v", ctx.Err())
	}
	if err := dbStoreChainTip(c.indexer.cachedb, c.Tip()); err != nil {
		log.Errorf("store chain tip: %v", err)
	}
	log.Infof("Crawler stopped at height %d.", c.Tip().BestHeight)
}

// syncLoop is the cycle state machine: fetch head, compare, reorg check,
// walk, drain, fees, sleep. Failures back off exponentially; an unknown
// operation kind halts the loop.
func (c *Crawler) syncLoop(ctx context.Context) {
	defer c.wg.Done()
	var failures int
	for {
		interval := c.idleInterval
		err := c.runCycle(ctx)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, chain.ErrUnknownOpType):
			log.Crit("halting sync", "err", err)
			return
		default:
			failures++
			interval = backoffInterval(c.idleInterval, failures)
			log.Errorf("cycle failed (attempt %d, retry in %s): %v", failures, interval, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func backoffInterval(base time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d = util.MinDuration(d*2, maxBackoff)
		if d == maxBackoff {
			break
		}
	}
	return d
}

func (c *Crawler) runCycle(ctx context.Context) error {
	head, err := c.fetchHead(ctx)
	if err != nil {
		return err
	}

	tip := c.Tip()
	switch {
	case head.Header.Level == tip.BestHeight:
		// nothing new, but a changed hash at the same height is a reorg
		if tip.BestHash != head.Hash {
			if err := c.reorg(ctx, head); err != nil {
				return err
			}
			if err := c.walk(ctx, head, c.Tip().BestHeight); err != nil {
				return err
			}
			return c.postWalk(ctx, head)
		}
		return nil
	case head.Header.Level < tip.BestHeight:
		log.Warnf("node head %d behind stored %d, waiting", head.Header.Level, tip.BestHeight)
		return nil
	}

	knownTop := tip.BestHeight
	if knownTop >= 0 {
		matched, err := c.reorgCheck(ctx, head)
		if err != nil {
			return err
		}
		knownTop = matched
	}

	if err := c.walk(ctx, head, knownTop); err != nil {
		// a predecessor mismatch at commit time is a reorg discovered
		// late; rewind now, the next cycle resumes forward
		if errors.Is(err, index.ErrPredecessorMismatch) {
			if rerr := c.reorg(ctx, head); rerr != nil {
				return rerr
			}
		}
		return err
	}
	return c.postWalk(ctx, head)
}

// postWalk runs the per-cycle follow-up work: final checkpoint drain, fee
// aggregation and the status row.
func (c *Crawler) postWalk(ctx context.Context, head *rpc.Block) error {
	if err := c.DrainAccounts(ctx); err != nil {
		return err
	}
	if err := c.DrainDelegates(ctx); err != nil {
		return err
	}
	if err := c.AggregateFees(ctx); err != nil {
		return err
	}
	if err := models.UpdateHarvesterStatus(c.db, models.StatusKeyMaxIndexedHeight,
		strconv.FormatInt(c.Tip().BestHeight, 10)); err != nil {
		return err
	}
	return models.UpdateHarvesterStatus(c.db, models.StatusKeySyncState, "synced")
}

// fetchHead retries transient transport failures inside the cycle before
// giving up.
func (c *Crawler) fetchHead(ctx context.Context) (*rpc.Block, error) {
	var head *rpc.Block
	var err error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		head, err = c.client.GetTipHeader(ctx)
		if err == nil {
			return head, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		wait := time.Duration(attempt) * time.Second
		log.Warnf("fetch head failed (attempt %d/%d, retry in %s): %v", attempt, c.retryAttempts, wait, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, err
}

func (c *Crawler) updateTip(block *models.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tip.BestHash = block.Hash
	c.tip.BestHeight = block.Height
	c.tip.BestTime = block.Timestamp
	c.tip.ChainId = block.ChainId
	c.tip.Protocol = block.Protocol
}

func (c *Crawler) setTip(hash chain.BlockHash, height int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tip.BestHash = hash
	c.tip.BestHeight = height
}
