// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"tezos_etl/chain"
)

// Account is the contract state at `blocks/{hash}/context/contracts/{id}`.
// Fields vary across protocol versions; absent ones decode to their zero
// value.
type Account struct {
	Manager   string          `json:"manager"`
	Balance   chain.Mutez     `json:"balance"`
	Spendable bool            `json:"spendable"`
	Delegate  AccountDelegate `json:"delegate"`
	Counter   chain.Mutez     `json:"counter"`
	Script    json.RawMessage `json:"script"`
	Storage   json.RawMessage `json:"storage"`
}

type AccountDelegate struct {
	Setable bool   `json:"setable"`
	Value   string `json:"value"`
}

func (d *AccountDelegate) UnmarshalJSON(data []byte) error {
	// newer protocols flatten delegate to a bare address string
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.Value = s
		return nil
	}
	type alias AccountDelegate
	return json.Unmarshal(data, (*alias)(d))
}

// DecodeAccount tolerates an empty body: some referenced ids belong to
// contracts whose origination failed on-chain.
func DecodeAccount(body []byte) (*Account, error) {
	if isEmptyBody(body) {
		return nil, nil
	}
	a := &Account{}
	if err := json.Unmarshal(body, a); err != nil {
		return nil, fmt.Errorf("rpc: decode account: %v: %s", err, excerpt(body))
	}
	return a, nil
}

func (c *Client) GetAccount(ctx context.Context, block chain.BlockHash, id string) (*Account, error) {
	body, err := c.Get(ctx, AccountPath(block, id))
	if err != nil {
		return nil, err
	}
	return DecodeAccount(body)
}

func AccountPath(block chain.BlockHash, id string) string {
	return fmt.Sprintf("blocks/%s/context/contracts/%s", block, id)
}

// isEmptyBody reports whether the node answered with nothing useful. Some
// protocol versions return empty strings for vote and rights queries.
func isEmptyBody(body []byte) bool {
	switch string(body) {
	case "", `""`, "null", "{}", "[]":
		return true
	}
	return false
}
