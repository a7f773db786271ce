// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/jinzhu/gorm"
	"tezos_etl/chain"
)

// AccountsCheckpoint queues accounts whose fresh state must be re-read at
// a later block. Rows are written while a block is persisted and removed
// once the drain has stored an equal or fresher Account row.
type AccountsCheckpoint struct {
	RowId   uint64          `gorm:"primary_key;column:row_id"   json:"row_id"` // internal: xxhash of (address, block hash)
	Address string          `gorm:"column:address;index:address"  json:"address"`
	BlockId chain.BlockHash `gorm:"column:block_id"      json:"block_id"`
	Height  int64           `gorm:"column:height;index:height"      json:"height"`
}

func (c AccountsCheckpoint) ID() uint64 {
	return c.RowId
}

func (AccountsCheckpoint) TableName() string {
	return "accounts_checkpoint"
}

// DelegatesCheckpoint is the baker-keyed analogue.
type DelegatesCheckpoint struct {
	RowId   uint64          `gorm:"primary_key;column:row_id"   json:"row_id"`
	Pkh     string          `gorm:"column:pkh;index:pkh"      json:"pkh"`
	BlockId chain.BlockHash `gorm:"column:block_id"      json:"block_id"`
	Height  int64           `gorm:"column:height;index:height"      json:"height"`
}

func (c DelegatesCheckpoint) ID() uint64 {
	return c.RowId
}

func (DelegatesCheckpoint) TableName() string {
	return "delegates_checkpoint"
}

func CheckpointRowId(id string, block chain.BlockHash) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s@%s", id, block))
}

// BatchInsertAccountsCheckpoint inserts queue entries, ignoring rows whose
// deterministic id already exists (restart after crash).
func BatchInsertAccountsCheckpoint(records []*AccountsCheckpoint, batch int, db *gorm.DB) error {
	if batch == 0 {
		batch = 1
	}
	sql := "INSERT IGNORE INTO accounts_checkpoint(row_id,address,block_id,height) VALUES "
	val := ""
	for index, value := range records {
		if index > 0 && index%batch == 0 || index == len(records)-1 {
			val += fmt.Sprintf("(%d,'%s','%s',%d);", value.RowId, value.Address, value.BlockId, value.Height)
			if err := db.Exec(sql + val).Error; err != nil {
				return err
			}
			val = ""
		} else {
			val += fmt.Sprintf("(%d,'%s','%s',%d),", value.RowId, value.Address, value.BlockId, value.Height)
		}
	}
	return nil
}

func BatchInsertDelegatesCheckpoint(records []*DelegatesCheckpoint, batch int, db *gorm.DB) error {
	if batch == 0 {
		batch = 1
	}
	sql := "INSERT IGNORE INTO delegates_checkpoint(row_id,pkh,block_id,height) VALUES "
	val := ""
	for index, value := range records {
		if index > 0 && index%batch == 0 || index == len(records)-1 {
			val += fmt.Sprintf("(%d,'%s','%s',%d);", value.RowId, value.Pkh, value.BlockId, value.Height)
			if err := db.Exec(sql + val).Error; err != nil {
				return err
			}
			val = ""
		} else {
			val += fmt.Sprintf("(%d,'%s','%s',%d),", value.RowId, value.Pkh, value.BlockId, value.Height)
		}
	}
	return nil
}
