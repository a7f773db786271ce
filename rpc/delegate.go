// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"tezos_etl/chain"
)

// Delegate is the baker state at `blocks/{hash}/context/delegates/{pkh}`.
type Delegate struct {
	Balance          chain.Mutez `json:"balance"`
	FrozenBalance    chain.Mutez `json:"frozen_balance"`
	StakingBalance   chain.Mutez `json:"staking_balance"`
	DelegatedBalance chain.Mutez `json:"delegated_balance"`
	Deactivated      bool        `json:"deactivated"`
	GracePeriod      int64       `json:"grace_period"`
}

func DecodeDelegate(body []byte) (*Delegate, error) {
	if isEmptyBody(body) {
		return nil, nil
	}
	d := &Delegate{}
	if err := json.Unmarshal(body, d); err != nil {
		return nil, fmt.Errorf("rpc: decode delegate: %v: %s", err, excerpt(body))
	}
	return d, nil
}

func (c *Client) GetDelegate(ctx context.Context, block chain.BlockHash, pkh string) (*Delegate, error) {
	body, err := c.Get(ctx, DelegatePath(block, pkh))
	if err != nil {
		return nil, err
	}
	return DecodeDelegate(body)
}

func DelegatePath(block chain.BlockHash, pkh string) string {
	return fmt.Sprintf("blocks/%s/context/delegates/%s", block, pkh)
}
