// Copyright (c) 2020 Blockwatch Data Inc.

package index

import (
	"context"
	"errors"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/puller/models"
)

const AccountIndexKey = "account"

var (
	ErrNoAccountEntry = errors.New("account not indexed")
)

// AccountIndex does not write account state during block processing; the
// fresh state only exists at the context endpoint and is read later by the
// checkpoint drain. Here we enqueue every account the block touches.
type AccountIndex struct {
	db *gorm.DB
}

func NewAccountIndex(db *gorm.DB) *AccountIndex {
	return &AccountIndex{db}
}

func (idx *AccountIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *AccountIndex) Key() string {
	return AccountIndexKey
}

func (idx *AccountIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	data := block.Data
	if data == nil || len(data.TouchedAccounts) == 0 {
		return nil
	}
	ins := make([]*models.AccountsCheckpoint, 0, len(data.TouchedAccounts))
	for _, addr := range data.TouchedAccounts {
		ins = append(ins, &models.AccountsCheckpoint{
			RowId:   models.CheckpointRowId(addr, block.Hash),
			Address: addr,
			BlockId: block.Hash,
			Height:  block.Height,
		})
	}
	batch := 200
	if err := models.BatchInsertAccountsCheckpoint(ins, batch, tx); err != nil {
		log.Errorf("batch insert accounts checkpoint error: %v", err)
		return err
	}
	return nil
}

func (idx *AccountIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting accounts read at height %d", height)
	if err := tx.Where("height = ?", height).Delete(&models.AccountsCheckpoint{}).Error; err != nil {
		return err
	}
	return tx.Where("height = ?", height).Delete(&models.Account{}).Error
}

func (idx *AccountIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	// account rows read on the discarded branch must be re-fetched, the
	// surviving checkpoint entries take care of that on the next drain
	log.Debugf("Reorg deleting accounts above height %d", height)
	if err := tx.Where("height > ?", height).Delete(&models.AccountsCheckpoint{}).Error; err != nil {
		return err
	}
	return tx.Where("height > ?", height).Delete(&models.Account{}).Error
}
