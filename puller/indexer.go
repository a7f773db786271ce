// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"

	"github.com/go-redis/redis"
	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	. "tezos_etl/puller/models"
)

type IndexerConfig struct {
	StateDB *gorm.DB
	CacheDB *redis.Client
	Indexes []BlockIndexer
}

// Indexer defines an index manager that manages and stores multiple indexes.
// All ConnectBlock calls for one block share a single transaction; the
// registration order of the indexes establishes referential integrity.
type Indexer struct {
	statedb *gorm.DB
	cachedb *redis.Client
	indexes []BlockIndexer
	tips    map[string]*IndexTip
}

func NewIndexer(cfg IndexerConfig) *Indexer {
	return &Indexer{
		statedb: cfg.StateDB,
		cachedb: cfg.CacheDB,
		indexes: cfg.Indexes,
		tips:    make(map[string]*IndexTip),
	}
}

func (m *Indexer) Init(ctx context.Context) error {
	// Nothing to do when no indexes are enabled.
	if len(m.indexes) == 0 {
		return nil
	}

	// load tips, create missing ones
	for _, t := range m.indexes {
		key := t.Key()
		tip, err := dbLoadIndexTip(m.cachedb, key)
		if err == ErrNoTable {
			tip = &IndexTip{}
			if err := dbStoreIndexTip(m.cachedb, key, tip); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		m.tips[key] = tip
	}
	return nil
}

func (m *Indexer) Close() error {
	for _, idx := range m.indexes {
		log.Infof("Closing %s.", idx.Key())
		if err := m.storeTip(idx.Key()); err != nil {
			return err
		}
	}
	return nil
}

// ConnectBlock writes one block through every index inside a single
// transaction and advances the index tips on commit.
func (m *Indexer) ConnectBlock(ctx context.Context, block *Block) error {
	var err error
	tx := m.statedb.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, t := range m.indexes {
		key := t.Key()
		tip, ok := m.tips[key]
		if !ok {
			log.Errorf("missing tip for table %s", key)
			continue
		}

		// skip when the block is already known
		if tip.Hash != nil && *tip.Hash == block.Hash {
			continue
		}

		err = t.ConnectBlock(ctx, block, tx)
		if err != nil {
			break
		}
	}

	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	for _, t := range m.indexes {
		tip, ok := m.tips[t.Key()]
		if !ok {
			continue
		}
		hash := block.Hash
		tip.Hash = &hash
		tip.Height = block.Height
	}
	return nil
}

// DeleteAbove removes every row above height across all indexes plus the
// block table in one transaction. Used by the reorg protocol.
func (m *Indexer) DeleteAbove(ctx context.Context, height int64, newTip chain.BlockHash) error {
	var err error
	tx := m.statedb.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, t := range m.indexes {
		if err = t.DeleteAbove(ctx, height, tx); err != nil {
			break
		}
	}
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	for _, t := range m.indexes {
		tip, ok := m.tips[t.Key()]
		if !ok {
			continue
		}
		hash := newTip
		tip.Hash = &hash
		tip.Height = height
	}
	return nil
}

// MaxHeight returns the highest stored block height, -1 on an empty
// table.
func (m *Indexer) MaxHeight() (int64, error) {
	var res struct {
		H int64
	}
	err := m.statedb.Model(&Block{}).Select("IFNULL(MAX(height), -1) as h").Scan(&res).Error
	if err != nil {
		return -1, err
	}
	return res.H, nil
}

// BlockByHeight returns the stored block at the given height.
func (m *Indexer) BlockByHeight(ctx context.Context, height int64) (*Block, error) {
	b := &Block{}
	err := m.statedb.Where("height = ?", height).First(b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, err
	}
	return b, err
}

// Store idx tip
func (m *Indexer) storeTip(key string) error {
	tip, ok := m.tips[key]
	if !ok {
		return nil
	}
	log.Debugf("Storing %s idx tip.", key)
	return dbStoreIndexTip(m.cachedb, key, tip)
}

func (m *Indexer) DB() *gorm.DB {
	return m.statedb
}
