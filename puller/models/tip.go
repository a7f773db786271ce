// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"errors"
	"time"

	"tezos_etl/chain"
)

var (
	// ErrNoChainTip indicates the cache holds no chain tip yet.
	ErrNoChainTip = errors.New("chain tip not found")

	// ErrNoTable indicates a requested index tip does not exist yet.
	ErrNoTable = errors.New("no such table")
)

// ChainTip is the crawler's view of the most recently indexed block. It is
// cached in redis and reconciled against MAX(height) in the database on
// startup; the database stays the source of truth.
type ChainTip struct {
	Network    string             `json:"network"`
	ChainId    chain.ChainID      `json:"chain_id"`
	Protocol   chain.ProtocolHash `json:"protocol"`
	BestHash   chain.BlockHash    `json:"best_hash"`
	BestHeight int64              `json:"best_height"`
	BestTime   time.Time          `json:"best_time"`
}
