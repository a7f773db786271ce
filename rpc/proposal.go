// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"tezos_etl/chain"
)

// ProposalsOp represents a proposal operation
type ProposalsOp struct {
	GenericOp
	Source    string               `json:"source"`
	Period    int64                `json:"period"`
	Proposals []chain.ProtocolHash `json:"proposals"`
}
