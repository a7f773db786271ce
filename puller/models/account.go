// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"github.com/jinzhu/gorm"
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// Account is the most recent known state of one account. One row per
// address; Height records the block the state was read at and a stale
// upsert never overwrites a fresher row.
type Account struct {
	RowId           uint64          `gorm:"primary_key;column:row_id"   json:"row_id"`
	Address         string          `gorm:"column:address;unique_index:address"  json:"address"` // bc: contract or implicit account id
	BlockId         chain.BlockHash `gorm:"column:block_id"      json:"block_id"`                // bc: block the state was read at
	Height          int64           `gorm:"column:height;index:height"      json:"height"`
	Manager         string          `gorm:"column:manager"      json:"manager"`
	Balance         int64           `gorm:"column:balance"      json:"balance"`
	Spendable       bool            `gorm:"column:spendable"      json:"spendable"`
	DelegateSetable bool            `gorm:"column:delegate_setable"      json:"delegate_setable"`
	DelegateValue   string          `gorm:"column:delegate_value"      json:"delegate_value"`
	Counter         int64           `gorm:"column:counter"      json:"counter"`
	Script          []byte          `gorm:"column:script;type:BLOB"      json:"script"`
	Storage         []byte          `gorm:"column:storage;type:BLOB"      json:"storage"`
}

func (a Account) ID() uint64 {
	return a.RowId
}

func (a *Account) SetID(id uint64) {
	a.RowId = id
}

func NewAccount(address string, block chain.BlockHash, height int64, acc *rpc.Account) *Account {
	return &Account{
		Address:         address,
		BlockId:         block,
		Height:          height,
		Manager:         acc.Manager,
		Balance:         acc.Balance.Int64(),
		Spendable:       acc.Spendable,
		DelegateSetable: acc.Delegate.Setable,
		DelegateValue:   acc.Delegate.Value,
		Counter:         acc.Counter.Int64(),
		Script:          acc.Script,
		Storage:         acc.Storage,
	}
}

// UpsertAccount writes the row unless a fresher one exists. The height
// guard keeps the latest-wins invariant under concurrent drains.
func UpsertAccount(db *gorm.DB, a *Account) error {
	sql := "INSERT INTO accounts (address, block_id, height, manager, balance, spendable, delegate_setable, delegate_value, counter, script, storage) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"block_id = IF(VALUES(height) >= height, VALUES(block_id), block_id), " +
		"manager = IF(VALUES(height) >= height, VALUES(manager), manager), " +
		"balance = IF(VALUES(height) >= height, VALUES(balance), balance), " +
		"spendable = IF(VALUES(height) >= height, VALUES(spendable), spendable), " +
		"delegate_setable = IF(VALUES(height) >= height, VALUES(delegate_setable), delegate_setable), " +
		"delegate_value = IF(VALUES(height) >= height, VALUES(delegate_value), delegate_value), " +
		"counter = IF(VALUES(height) >= height, VALUES(counter), counter), " +
		"script = IF(VALUES(height) >= height, VALUES(script), script), " +
		"storage = IF(VALUES(height) >= height, VALUES(storage), storage), " +
		"height = IF(VALUES(height) >= height, VALUES(height), height)"
	return db.Exec(sql, a.Address, a.BlockId, a.Height, a.Manager, a.Balance, a.Spendable,
		a.DelegateSetable, a.DelegateValue, a.Counter, a.Script, a.Storage).Error
}
