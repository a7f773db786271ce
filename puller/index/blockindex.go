// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/puller/models"
)

const BlockIndexKey = "block"

var (
	// ErrNoBlockEntry is an error that indicates a requested entry does
	// not exist in the block table.
	ErrNoBlockEntry = errors.New("block not indexed")

	// ErrPredecessorMismatch signals that the stored parent hash differs
	// from the incoming block's predecessor. The crawler reacts with the
	// reorg protocol.
	ErrPredecessorMismatch = errors.New("predecessor mismatch")
)

type BlockIndex struct {
	db *gorm.DB
}

func NewBlockIndex(db *gorm.DB) *BlockIndex {
	return &BlockIndex{db}
}

func (idx *BlockIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *BlockIndex) Key() string {
	return BlockIndexKey
}

func (idx *BlockIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	// verify the chain link against the stored parent before writing
	var prev models.Block
	err := tx.Where("height = ?", block.Height-1).First(&prev).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		// genesis or first block of a fresh sync range
	case err != nil:
		return err
	case prev.Hash != block.Predecessor:
		return fmt.Errorf("%w: stored %s at height %d, predecessor claims %s",
			ErrPredecessorMismatch, prev.Hash, prev.Height, block.Predecessor)
	}

	// idempotent on hash: a restart may replay an already stored block
	if !tx.Where("row_id = ?", block.RowId).First(&models.Block{}).RecordNotFound() {
		return nil
	}
	return tx.Create(block).Error
}

func (idx *BlockIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting block at height %d", height)
	return tx.Where("height = ?", height).Delete(&models.Block{}).Error
}

func (idx *BlockIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Reorg deleting blocks above height %d", height)
	return tx.Where("height > ?", height).Delete(&models.Block{}).Error
}
