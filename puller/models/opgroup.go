// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"github.com/cespare/xxhash"
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// OperationGroup is the envelope shared by the operations of one signed
// group. BlockId references blocks.hash.
type OperationGroup struct {
	RowId     uint64             `gorm:"primary_key;column:row_id"   json:"row_id"`      // internal: xxhash of group hash
	Hash      chain.OpHash       `gorm:"column:hash;unique_index:hash"      json:"hash"` // bc: group hash
	Branch    chain.BlockHash    `gorm:"column:branch"      json:"branch"`               // bc: branch block the group is based on
	Signature string             `gorm:"column:signature"      json:"signature"`
	Protocol  chain.ProtocolHash `gorm:"column:protocol"      json:"protocol"`
	ChainId   chain.ChainID      `gorm:"column:chain_id"      json:"chain_id"`
	BlockId   chain.BlockHash    `gorm:"column:block_id;index:block"      json:"block_id"` // fk: blocks.hash
	Height    int64              `gorm:"column:height;index:height"      json:"height"`    // bc: including block height
}

func (g OperationGroup) ID() uint64 {
	return g.RowId
}

func (g *OperationGroup) SetID(id uint64) {
	g.RowId = id
}

func GroupRowId(hash chain.OpHash) uint64 {
	return xxhash.Sum64String(hash.String())
}

func NewOperationGroup(g *rpc.OperationGroup, block *Block) *OperationGroup {
	return &OperationGroup{
		RowId:     GroupRowId(g.Hash),
		Hash:      g.Hash,
		Branch:    g.Branch,
		Signature: g.Signature,
		Protocol:  g.Protocol,
		ChainId:   g.ChainId,
		BlockId:   block.Hash,
		Height:    block.Height,
	}
}
