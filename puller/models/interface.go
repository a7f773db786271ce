// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"context"

	"github.com/jinzhu/gorm"
)

// BlockIndexer provides a generic interface for an indexer that is managed
// by a puller.Indexer. ConnectBlock calls of all indexers for one block share
// a single transaction; the registration order of the indexers establishes
// referential integrity at commit time.
type BlockIndexer interface {

	// Key returns the key of the index as a string.
	Key() string

	// ConnectBlock is invoked when the manager is notified that a new
	// block has been connected to the main chain.
	ConnectBlock(ctx context.Context, block *Block, tx *gorm.DB) error

	// DeleteBlock is invoked when a single block must be rolled back
	// after an error occured.
	DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error

	// DeleteAbove removes every row above the given height. Used when a
	// reorg discards the old branch.
	DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error

	// returns the database storing all indexer tables
	DB() *gorm.DB
}
