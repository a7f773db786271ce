// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"tezos_etl/chain"
)

// Block is one indexed block header row. Rows are created once per height
// and never mutated; a reorg deletes and re-creates them.
type Block struct {
	RowId                 uint64                 `gorm:"primary_key;column:row_id"   json:"row_id"`            // internal: xxhash of block hash
	Hash                  chain.BlockHash        `gorm:"column:hash;unique_index:hash"      json:"hash"`       // bc: block hash
	Predecessor           chain.BlockHash        `gorm:"column:predecessor"      json:"predecessor"`           // bc: parent block hash
	Height                int64                  `gorm:"column:height;unique_index:height"      json:"height"` // bc: block height
	Cycle                 int64                  `gorm:"column:cycle"      json:"cycle"`                       // bc: block cycle (tezos specific)
	Timestamp             time.Time              `gorm:"column:time"      json:"time"`                         // bc: block creation time
	Proto                 int                    `gorm:"column:proto"      json:"proto"`                       // bc: protocol ordinal
	Fitness               string                 `gorm:"column:fitness"      json:"fitness"`                   // bc: fitness vector, comma joined
	Context               string                 `gorm:"column:context"      json:"context"`                   // bc: context hash
	Signature             string                 `gorm:"column:signature"      json:"signature"`               // bc: block signature
	Protocol              chain.ProtocolHash     `gorm:"column:protocol"      json:"protocol"`                 // bc: protocol hash
	ChainId               chain.ChainID          `gorm:"column:chain_id"      json:"chain_id"`                 // bc: chain id
	OperationsHash        string                 `gorm:"column:operations_hash"      json:"operations_hash"`   // bc: merkle root of operation list
	PeriodKind            chain.VotingPeriodKind `gorm:"column:period_kind"      json:"period_kind"`           // bc: voting period (enum)
	CurrentExpectedQuorum int64                  `gorm:"column:current_expected_quorum"   json:"current_expected_quorum"`
	ActiveProposal        chain.ProtocolHash     `gorm:"column:active_proposal"      json:"active_proposal"`
	Baker                 string                 `gorm:"column:baker;index:baker"      json:"baker"` // bc: block baker address
	ConsumedGas           int64                  `gorm:"column:consumed_gas"      json:"consumed_gas"`
	MetaLevel             int64                  `gorm:"column:meta_level"      json:"meta_level"`
	MetaLevelPosition     int64                  `gorm:"column:meta_level_position"      json:"meta_level_position"`
	MetaCycle             int64                  `gorm:"column:meta_cycle"      json:"meta_cycle"`
	MetaCyclePosition     int64                  `gorm:"column:meta_cycle_position"      json:"meta_cycle_position"`
	MetaVotingPeriod      int64                  `gorm:"column:meta_voting_period"      json:"meta_voting_period"`
	MetaVotingPeriodPos   int64                  `gorm:"column:meta_voting_period_position"  json:"meta_voting_period_position"`
	Priority              int                    `gorm:"column:priority"      json:"priority"` // bc: baker priority

	// carried through block processing, not stored
	Data   *BlockData        `gorm:"-" json:"-"`
	Groups []*OperationGroup `gorm:"-" json:"-"`
	Ops    []*Op             `gorm:"-" json:"-"`
}

func (b Block) ID() uint64 {
	return b.RowId
}

func (b *Block) SetID(id uint64) {
	b.RowId = id
}

// BlockRowId derives the deterministic primary key from the block hash, so
// re-inserting the same block after a crash is a no-op.
func BlockRowId(hash chain.BlockHash) uint64 {
	return xxhash.Sum64String(hash.String())
}

// NewBlock maps fetched block data onto a row.
func NewBlock(data *BlockData) *Block {
	hdr := data.Block.Header
	meta := data.Block.Metadata
	b := &Block{
		RowId:                 BlockRowId(data.Block.Hash),
		Hash:                  data.Block.Hash,
		Predecessor:           hdr.Predecessor,
		Height:                hdr.Level,
		Cycle:                 meta.Level.Cycle,
		Timestamp:             hdr.Timestamp,
		Proto:                 hdr.Proto,
		Fitness:               strings.Join(hdr.Fitness, ","),
		Context:               hdr.Context,
		Signature:             hdr.Signature,
		Protocol:              data.Block.Protocol,
		ChainId:               data.Block.ChainId,
		OperationsHash:        hdr.OperationsHash,
		PeriodKind:            meta.VotingPeriodKind,
		CurrentExpectedQuorum: data.CurrentQuorum,
		ActiveProposal:        data.CurrentProposal,
		Baker:                 meta.Baker,
		ConsumedGas:           meta.ConsumedGas.Int64(),
		MetaLevel:             meta.Level.Level,
		MetaLevelPosition:     meta.Level.LevelPosition,
		MetaCycle:             meta.Level.Cycle,
		MetaCyclePosition:     meta.Level.CyclePosition,
		MetaVotingPeriod:      meta.Level.VotingPeriod,
		MetaVotingPeriodPos:   meta.Level.VotingPeriodPosition,
		Priority:              hdr.Priority,
		Data:                  data,
	}
	return b
}
