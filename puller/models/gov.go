// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"fmt"

	"github.com/cespare/xxhash"
	"tezos_etl/chain"
)

// Roll is one staking-weight listing (`votes/listings`) entry at a block.
type Roll struct {
	RowId   uint64          `gorm:"primary_key;column:row_id"   json:"row_id"`
	Pkh     string          `gorm:"column:pkh;index:pkh"      json:"pkh"`
	Rolls   int64           `gorm:"column:rolls"      json:"rolls"`
	BlockId chain.BlockHash `gorm:"column:block_id"      json:"block_id"`
	Height  int64           `gorm:"column:height;index:height"      json:"height"`
}

func (r Roll) ID() uint64 {
	return r.RowId
}

func RollRowId(height int64, pkh string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("roll/%d/%s", height, pkh))
}

// Proposal is the per-block roll support of one protocol proposal.
type Proposal struct {
	RowId   uint64             `gorm:"primary_key;column:row_id"   json:"row_id"`
	Hash    chain.ProtocolHash `gorm:"column:hash;index:hash"      json:"hash"`
	Rolls   int64              `gorm:"column:rolls"      json:"rolls"`
	BlockId chain.BlockHash    `gorm:"column:block_id"      json:"block_id"`
	Height  int64              `gorm:"column:height;index:height"      json:"height"`
}

func (p Proposal) ID() uint64 {
	return p.RowId
}

func ProposalRowId(height int64, hash chain.ProtocolHash) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("prop/%d/%s", height, hash))
}

// Ballot is one entry of a block's ballot list.
type Ballot struct {
	RowId   uint64           `gorm:"primary_key;column:row_id"   json:"row_id"`
	Pkh     string           `gorm:"column:pkh;index:pkh"      json:"pkh"`
	Ballot  chain.BallotVote `gorm:"column:ballot"      json:"ballot"` // yay, nay, pass
	BlockId chain.BlockHash  `gorm:"column:block_id"      json:"block_id"`
	Height  int64            `gorm:"column:height;index:height"      json:"height"`
}

func (b Ballot) ID() uint64 {
	return b.RowId
}

func BallotRowId(height int64, pkh string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("ballot/%d/%s", height, pkh))
}
