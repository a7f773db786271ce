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

// Block holds the authoritative per-block JSON as served by
// `blocks/{hash}~{offset}`. Operations are fetched separately through the
// operations endpoint, so the inline list is left undecoded here.
type Block struct {
	Protocol chain.ProtocolHash `json:"protocol"`
	ChainId  chain.ChainID      `json:"chain_id"`
	Hash     chain.BlockHash    `json:"hash"`
	Header   BlockHeader        `json:"header"`
	Metadata BlockMetadata      `json:"metadata"`
}

type BlockHeader struct {
	Level            int64           `json:"level"`
	Proto            int             `json:"proto"`
	Predecessor      chain.BlockHash `json:"predecessor"`
	Timestamp        time.Time       `json:"timestamp"`
	ValidationPass   int             `json:"validation_pass"`
	OperationsHash   string          `json:"operations_hash"`
	Fitness          []string        `json:"fitness"`
	Context          string          `json:"context"`
	Priority         int             `json:"priority"`
	ProofOfWorkNonce string          `json:"proof_of_work_nonce"`
	Signature        string          `json:"signature"`
}

type BlockMetadata struct {
	Protocol         chain.ProtocolHash     `json:"protocol"`
	NextProtocol     chain.ProtocolHash     `json:"next_protocol"`
	Baker            string                 `json:"baker"`
	ConsumedGas      chain.Mutez            `json:"consumed_gas"`
	Level            LevelInfo              `json:"level"`
	VotingPeriodKind chain.VotingPeriodKind `json:"voting_period_kind"`
}

type LevelInfo struct {
	Level                int64 `json:"level"`
	LevelPosition        int64 `json:"level_position"`
	Cycle                int64 `json:"cycle"`
	CyclePosition        int64 `json:"cycle_position"`
	VotingPeriod         int64 `json:"voting_period"`
	VotingPeriodPosition int64 `json:"voting_period_position"`
}

func (b *Block) Level() int64 {
	return b.Header.Level
}

func (b *Block) Cycle() int64 {
	return b.Metadata.Level.Cycle
}

// DecodeBlock parses an authoritative block body. Any decode failure here
// fails the indexing cycle.
func DecodeBlock(body []byte) (*Block, error) {
	b := &Block{}
	if err := json.Unmarshal(body, b); err != nil {
		return nil, fmt.Errorf("rpc: decode block: %v: %s", err, excerpt(body))
	}
	if !b.Hash.IsValid() {
		return nil, fmt.Errorf("rpc: decode block: missing hash: %s", excerpt(body))
	}
	return b, nil
}

func (c *Client) GetBlock(ctx context.Context, hash chain.BlockHash) (*Block, error) {
	body, err := c.Get(ctx, fmt.Sprintf("blocks/%s", hash))
	if err != nil {
		return nil, err
	}
	return DecodeBlock(body)
}

// GetBlockOffset fetches the block offset levels below base.
func (c *Client) GetBlockOffset(ctx context.Context, base chain.BlockHash, offset int64) (*Block, error) {
	body, err := c.Get(ctx, BlockOffsetPath(base, offset))
	if err != nil {
		return nil, err
	}
	return DecodeBlock(body)
}

func (c *Client) GetTipHeader(ctx context.Context) (*Block, error) {
	return c.GetBlock(ctx, "head")
}

// BlockOffsetPath renders the `blocks/{hash}~{offset}` path. Offset zero
// addresses the base block itself.
func BlockOffsetPath(base chain.BlockHash, offset int64) string {
	if offset <= 0 {
		return fmt.Sprintf("blocks/%s", base)
	}
	return fmt.Sprintf("blocks/%s~%d", base, offset)
}
