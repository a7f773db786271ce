// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// Op is one operation inside a group. Kind-specific attributes stay at
// their zero value for kinds that do not carry them.
type Op struct {
	RowId        uint64             `gorm:"primary_key;column:row_id"   json:"row_id"`                            // internal: xxhash of (group hash, positions)
	GroupHash    chain.OpHash       `gorm:"column:operation_group_hash;index:group"  json:"operation_group_hash"` // fk: operation_groups.hash
	Type         chain.OpType       `gorm:"column:type;index:type_idx"      json:"type"`                          // bc: operation kind
	Source       string             `gorm:"column:source;index:source"      json:"source"`                        // bc: sending account
	Destination  string             `gorm:"column:destination;index:destination"  json:"destination"`             // bc: receiving account (transactions)
	Delegate     string             `gorm:"column:delegate"      json:"delegate"`                                 // bc: delegate (delegations, originations)
	ManagerPk    string             `gorm:"column:manager_public_key"      json:"manager_public_key"`
	Pkh          string             `gorm:"column:pkh"      json:"pkh"` // bc: activated account
	Secret       string             `gorm:"column:secret"      json:"secret"`
	PublicKey    string             `gorm:"column:public_key"      json:"public_key"` // bc: revealed key
	Amount       int64              `gorm:"column:amount"      json:"amount"`         // stats: transacted volume
	Balance      int64              `gorm:"column:balance"      json:"balance"`       // bc: origination endowment
	Fee          int64              `gorm:"column:fee"      json:"fee"`               // stats: operation fee
	Counter      int64              `gorm:"column:counter"      json:"counter"`
	GasLimit     int64              `gorm:"column:gas_limit"      json:"gas_limit"`
	StorageLimit int64              `gorm:"column:storage_limit"      json:"storage_limit"`
	ConsumedGas  int64              `gorm:"column:consumed_gas"      json:"consumed_gas"`
	Parameters   []byte             `gorm:"column:parameters;type:BLOB"      json:"parameters"` // bc: call params
	Script       []byte             `gorm:"column:script;type:BLOB"      json:"script"`         // bc: origination script
	Status       string             `gorm:"column:status"      json:"status"`                   // bc: applied, failed, ...
	Level        int64              `gorm:"column:level"      json:"level"`                     // bc: endorsed/revealed level
	Nonce        string             `gorm:"column:nonce"      json:"nonce"`
	Ballot       chain.BallotVote   `gorm:"column:ballot"      json:"ballot"`
	Proposal     chain.ProtocolHash `gorm:"column:proposal"      json:"proposal"`
	Period       int64              `gorm:"column:period"      json:"period"`
	BlockHash    chain.BlockHash    `gorm:"column:block_hash;index:block"      json:"block_hash"` // fk: blocks.hash
	Height       int64              `gorm:"column:height;index:height"      json:"height"`
	Timestamp    time.Time          `gorm:"column:time"      json:"time"`
	Cycle        int64              `gorm:"column:cycle"      json:"cycle"`
	IsInternal   bool               `gorm:"column:is_internal"      json:"is_internal"` // bc: emitted by contract execution
	OpN          int                `gorm:"column:op_n"      json:"op_n"`               // bc: group position in block
	OpC          int                `gorm:"column:op_c"      json:"op_c"`               // bc: position in group contents
}

func (o Op) ID() uint64 {
	return o.RowId
}

func (o *Op) SetID(id uint64) {
	o.RowId = id
}

// OpRowId derives a deterministic primary key from the group hash and the
// operation's position, so re-inserts after a crash are no-ops.
func OpRowId(group chain.OpHash, opN, opC int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s/%d/%d", group, opN, opC))
}

// NewOps maps every operation of a decoded group onto rows.
func NewOps(g *rpc.OperationGroup, block *Block, opN int) []*Op {
	ops := make([]*Op, 0, len(g.Contents))
	for opC, content := range g.Contents {
		o := &Op{
			RowId:     OpRowId(g.Hash, opN, opC),
			GroupHash: g.Hash,
			Type:      content.OpKind(),
			BlockHash: block.Hash,
			Height:    block.Height,
			Timestamp: block.Timestamp,
			Cycle:     block.Cycle,
			OpN:       opN,
			OpC:       opC,
		}
		switch op := content.(type) {
		case *rpc.EndorsementOp:
			o.Level = op.Level
		case *rpc.SeedNonceOp:
			o.Level = op.Level
			o.Nonce = op.Nonce
		case *rpc.ActivateAccountOp:
			o.Pkh = op.Pkh
			o.Secret = op.Secret
		case *rpc.RevealOp:
			o.Source = op.Source
			o.PublicKey = op.PublicKey
			o.Fee = op.Fee.Int64()
			o.Counter = op.Counter.Int64()
			o.GasLimit = op.GasLimit.Int64()
			o.StorageLimit = op.StorageLimit.Int64()
			o.ConsumedGas = op.Metadata.OperationResult.ConsumedGas.Int64()
			o.Status = op.Metadata.OperationResult.Status
		case *rpc.TransactionOp:
			o.Source = op.Source
			o.Destination = op.Destination
			o.Amount = op.Amount.Int64()
			o.Fee = op.Fee.Int64()
			o.Counter = op.Counter.Int64()
			o.GasLimit = op.GasLimit.Int64()
			o.StorageLimit = op.StorageLimit.Int64()
			o.ConsumedGas = op.Metadata.OperationResult.ConsumedGas.Int64()
			o.Parameters = op.Parameters
			o.Status = op.Metadata.OperationResult.Status
			o.IsInternal = len(op.Metadata.InternalOperationResults) > 0
		case *rpc.OriginationOp:
			o.Source = op.Source
			o.ManagerPk = op.ManagerPk
			o.Delegate = op.Delegate
			o.Balance = op.Balance.Int64()
			o.Fee = op.Fee.Int64()
			o.Counter = op.Counter.Int64()
			o.GasLimit = op.GasLimit.Int64()
			o.StorageLimit = op.StorageLimit.Int64()
			o.ConsumedGas = op.Metadata.OperationResult.ConsumedGas.Int64()
			o.Script = op.Script
			o.Status = op.Metadata.OperationResult.Status
		case *rpc.DelegationOp:
			o.Source = op.Source
			o.Delegate = op.Delegate
			o.Fee = op.Fee.Int64()
			o.Counter = op.Counter.Int64()
			o.GasLimit = op.GasLimit.Int64()
			o.StorageLimit = op.StorageLimit.Int64()
			o.ConsumedGas = op.Metadata.OperationResult.ConsumedGas.Int64()
			o.Status = op.Metadata.OperationResult.Status
		case *rpc.ProposalsOp:
			o.Source = op.Source
			o.Period = op.Period
			if len(op.Proposals) > 0 {
				o.Proposal = op.Proposals[0]
			}
		case *rpc.BallotOp:
			o.Source = op.Source
			o.Period = op.Period
			o.Ballot = op.Ballot
			o.Proposal = op.Proposal
		}
		ops = append(ops, o)
	}
	return ops
}
