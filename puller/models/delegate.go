// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"github.com/jinzhu/gorm"
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// Delegate is the most recent known baker state, one row per pkh.
type Delegate struct {
	RowId            uint64          `gorm:"primary_key;column:row_id"   json:"row_id"`
	Pkh              string          `gorm:"column:pkh;unique_index:pkh"      json:"pkh"`
	BlockId          chain.BlockHash `gorm:"column:block_id"      json:"block_id"`
	Height           int64           `gorm:"column:height;index:height"      json:"height"`
	Balance          int64           `gorm:"column:balance"      json:"balance"`
	FrozenBalance    int64           `gorm:"column:frozen_balance"      json:"frozen_balance"`
	StakingBalance   int64           `gorm:"column:staking_balance"      json:"staking_balance"`
	DelegatedBalance int64           `gorm:"column:delegated_balance"      json:"delegated_balance"`
	Deactivated      bool            `gorm:"column:deactivated"      json:"deactivated"`
	GracePeriod      int64           `gorm:"column:grace_period"      json:"grace_period"`
}

func (d Delegate) ID() uint64 {
	return d.RowId
}

func (d *Delegate) SetID(id uint64) {
	d.RowId = id
}

func NewDelegate(pkh string, block chain.BlockHash, height int64, del *rpc.Delegate) *Delegate {
	return &Delegate{
		Pkh:              pkh,
		BlockId:          block,
		Height:           height,
		Balance:          del.Balance.Int64(),
		FrozenBalance:    del.FrozenBalance.Int64(),
		StakingBalance:   del.StakingBalance.Int64(),
		DelegatedBalance: del.DelegatedBalance.Int64(),
		Deactivated:      del.Deactivated,
		GracePeriod:      del.GracePeriod,
	}
}

// UpsertDelegate writes the row unless a fresher one exists.
func UpsertDelegate(db *gorm.DB, d *Delegate) error {
	sql := "INSERT INTO delegates (pkh, block_id, height, balance, frozen_balance, staking_balance, delegated_balance, deactivated, grace_period) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"block_id = IF(VALUES(height) >= height, VALUES(block_id), block_id), " +
		"balance = IF(VALUES(height) >= height, VALUES(balance), balance), " +
		"frozen_balance = IF(VALUES(height) >= height, VALUES(frozen_balance), frozen_balance), " +
		"staking_balance = IF(VALUES(height) >= height, VALUES(staking_balance), staking_balance), " +
		"delegated_balance = IF(VALUES(height) >= height, VALUES(delegated_balance), delegated_balance), " +
		"deactivated = IF(VALUES(height) >= height, VALUES(deactivated), deactivated), " +
		"grace_period = IF(VALUES(height) >= height, VALUES(grace_period), grace_period), " +
		"height = IF(VALUES(height) >= height, VALUES(height), height)"
	return db.Exec(sql, d.Pkh, d.BlockId, d.Height, d.Balance, d.FrozenBalance,
		d.StakingBalance, d.DelegatedBalance, d.Deactivated, d.GracePeriod).Error
}
