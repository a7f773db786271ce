// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"encoding/json"

	"tezos_etl/chain"
)

// BallotOp represents a ballot operation
type BallotOp struct {
	GenericOp
	Source   string             `json:"source"`
	Period   int64              `json:"period"`
	Ballot   chain.BallotVote   `json:"ballot"` // yay, nay, pass
	Proposal chain.ProtocolHash `json:"proposal"`
	Metadata json.RawMessage    `json:"metadata"`
}
