// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"tezos_etl/chain"
)

// Voting data lives under `blocks/{hash}/votes/...`. All of it decodes
// tolerantly: outside voting periods (and on a few protocol versions) the
// node answers with empty strings or nulls.

// RollListing is one entry of `votes/listings`.
type RollListing struct {
	Pkh   string `json:"pkh"`
	Rolls int64  `json:"rolls"`
}

// ProposalSupport is one entry of `votes/proposals`, a [hash, rolls] pair.
type ProposalSupport struct {
	Proposal chain.ProtocolHash
	Rolls    int64
}

func (p *ProposalSupport) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("proposal support: expected [hash, rolls] pair")
	}
	if err := json.Unmarshal(pair[0], &p.Proposal); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.Rolls)
}

// BallotEntry is one entry of `votes/ballot_list`.
type BallotEntry struct {
	Pkh    string           `json:"pkh"`
	Ballot chain.BallotVote `json:"ballot"`
}

func DecodeCurrentQuorum(body []byte) (int64, error) {
	if isEmptyBody(body) {
		return 0, nil
	}
	var q int64
	if err := json.Unmarshal(body, &q); err != nil {
		return 0, fmt.Errorf("rpc: decode current quorum: %v: %s", err, excerpt(body))
	}
	return q, nil
}

func DecodeCurrentProposal(body []byte) (chain.ProtocolHash, error) {
	if isEmptyBody(body) {
		return chain.ZeroProtocolHash, nil
	}
	var p chain.ProtocolHash
	if err := json.Unmarshal(body, &p); err != nil {
		return chain.ZeroProtocolHash, fmt.Errorf("rpc: decode current proposal: %v: %s", err, excerpt(body))
	}
	return p, nil
}

func DecodeProposals(body []byte) ([]ProposalSupport, error) {
	if isEmptyBody(body) {
		return []ProposalSupport{}, nil
	}
	var props []ProposalSupport
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, fmt.Errorf("rpc: decode proposals: %v: %s", err, excerpt(body))
	}
	return props, nil
}

func DecodeListings(body []byte) ([]RollListing, error) {
	if isEmptyBody(body) {
		return []RollListing{}, nil
	}
	var listings []RollListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("rpc: decode listings: %v: %s", err, excerpt(body))
	}
	return listings, nil
}

func DecodeBallotList(body []byte) ([]BallotEntry, error) {
	if isEmptyBody(body) {
		return []BallotEntry{}, nil
	}
	var ballots []BallotEntry
	if err := json.Unmarshal(body, &ballots); err != nil {
		return nil, fmt.Errorf("rpc: decode ballot list: %v: %s", err, excerpt(body))
	}
	return ballots, nil
}

func (c *Client) GetCurrentQuorum(ctx context.Context, block chain.BlockHash) (int64, error) {
	body, err := c.Get(ctx, VotesPath(block, "current_quorum"))
	if err != nil {
		return 0, err
	}
	return DecodeCurrentQuorum(body)
}

func (c *Client) GetCurrentProposal(ctx context.Context, block chain.BlockHash) (chain.ProtocolHash, error) {
	body, err := c.Get(ctx, VotesPath(block, "current_proposal"))
	if err != nil {
		return chain.ZeroProtocolHash, err
	}
	return DecodeCurrentProposal(body)
}

func VotesPath(block chain.BlockHash, sub string) string {
	return fmt.Sprintf("blocks/%s/votes/%s", block, sub)
}
