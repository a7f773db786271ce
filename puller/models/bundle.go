// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// BlockData bundles everything fetched for one block before it is turned
// into rows: the block itself plus the per-block fan-out (operations,
// touched accounts, rights, votes).
type BlockData struct {
	Block           *rpc.Block
	Groups          []*rpc.OperationGroup
	TouchedAccounts []string
	Baking          []rpc.BakingRight
	Endorsing       []rpc.EndorsingRight
	CurrentQuorum   int64
	CurrentProposal chain.ProtocolHash
	Proposals       []rpc.ProposalSupport
	Listings        []rpc.RollListing
	Ballots         []rpc.BallotEntry
}

func (d *BlockData) Height() int64 {
	return d.Block.Header.Level
}

func (d *BlockData) Hash() chain.BlockHash {
	return d.Block.Hash
}

func (d *BlockData) Cycle() int64 {
	return d.Block.Metadata.Level.Cycle
}

func (d *BlockData) Parent() chain.BlockHash {
	return d.Block.Header.Predecessor
}
