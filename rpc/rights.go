// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tezos_etl/chain"
)

// BakingRight is one entry of `blocks/{hash}/helpers/baking_rights`.
type BakingRight struct {
	Level         int64     `json:"level"`
	Delegate      string    `json:"delegate"`
	Priority      int       `json:"priority"`
	EstimatedTime time.Time `json:"estimated_time"`
}

// EndorsingRight is one entry of `blocks/{hash}/helpers/endorsing_rights`.
type EndorsingRight struct {
	Level         int64     `json:"level"`
	Delegate      string    `json:"delegate"`
	Slots         []int     `json:"slots"`
	EstimatedTime time.Time `json:"estimated_time"`
}

// DecodeBakingRights is tolerant: an empty body yields an empty list. Some
// protocol versions answer rights queries with empty strings.
func DecodeBakingRights(body []byte) ([]BakingRight, error) {
	if isEmptyBody(body) {
		return []BakingRight{}, nil
	}
	var rights []BakingRight
	if err := json.Unmarshal(body, &rights); err != nil {
		return nil, fmt.Errorf("rpc: decode baking rights: %v: %s", err, excerpt(body))
	}
	return rights, nil
}

func DecodeEndorsingRights(body []byte) ([]EndorsingRight, error) {
	if isEmptyBody(body) {
		return []EndorsingRight{}, nil
	}
	var rights []EndorsingRight
	if err := json.Unmarshal(body, &rights); err != nil {
		return nil, fmt.Errorf("rpc: decode endorsing rights: %v: %s", err, excerpt(body))
	}
	return rights, nil
}

func (c *Client) GetBakingRights(ctx context.Context, block chain.BlockHash) ([]BakingRight, error) {
	body, err := c.Get(ctx, BakingRightsPath(block))
	if err != nil {
		return nil, err
	}
	return DecodeBakingRights(body)
}

func (c *Client) GetEndorsingRights(ctx context.Context, block chain.BlockHash) ([]EndorsingRight, error) {
	body, err := c.Get(ctx, EndorsingRightsPath(block))
	if err != nil {
		return nil, err
	}
	return DecodeEndorsingRights(body)
}

func BakingRightsPath(block chain.BlockHash) string {
	return fmt.Sprintf("blocks/%s/helpers/baking_rights", block)
}

func EndorsingRightsPath(block chain.BlockHash) string {
	return fmt.Sprintf("blocks/%s/helpers/endorsing_rights", block)
}
