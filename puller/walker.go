// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"
	"fmt"
	"sort"

	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
)

// walk fetches every block between knownTop (exclusive) and head
// (inclusive) and connects them in strictly ascending height order, so the
// stored range stays contiguous even when a batch dies halfway.
//
// Offsets o in 0..head.level-knownTop-1 address `blocks/{head}~{o}`; the
// window with the highest offsets holds the lowest heights and is
// processed first.
func (c *Crawler) walk(ctx context.Context, head *rpc.Block, knownTop int64) error {
	total := head.Header.Level - knownTop
	if total <= 0 {
		return nil
	}
	batch := int64(c.batchSize)
	if batch <= 0 {
		batch = 1
	}

	for start := total - 1; start >= 0; start -= batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start - batch + 1
		if end < 0 {
			end = 0
		}
		// descending offsets == ascending heights
		offsets := make([]int64, 0, start-end+1)
		for o := start; o >= end; o-- {
			offsets = append(offsets, o)
		}
		blocks, err := c.fetchBlocks(ctx, head.Hash, offsets)
		if err != nil {
			return err
		}
		data, err := c.fetchBlockData(ctx, blocks)
		if err != nil {
			return err
		}
		sort.Slice(data, func(i, j int) bool { return data[i].Height() < data[j].Height() })
		for _, d := range data {
			if err := ctx.Err(); err != nil {
				return err
			}
			block := buildBlock(d)
			if err := c.indexer.ConnectBlock(ctx, block); err != nil {
				return err
			}
			c.updateTip(block)
		}
		log.Infof("Indexed heights %d..%d of %d.", data[0].Height(), data[len(data)-1].Height(), head.Header.Level)

		// drain between windows so account state follows block progress
		if err := c.DrainAccounts(ctx); err != nil {
			return err
		}
		if err := c.DrainDelegates(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) fetchBlocks(ctx context.Context, base chain.BlockHash, offsets []int64) ([]*rpc.Block, error) {
	fetcher := rpc.Fetcher[int64, *rpc.Block]{
		Fetch: rpc.ClientFetch(c.client, func(o int64) string {
			return rpc.BlockOffsetPath(base, o)
		}, c.fetchConcurrency),
		Decode: rpc.DecodeBlock,
	}
	results, err := fetcher.Run(ctx, offsets)
	if err != nil {
		return nil, err
	}
	blocks := make([]*rpc.Block, len(results))
	for i, r := range results {
		blocks[i] = r.Out
	}
	return blocks, nil
}

// fetchBlockData runs the per-block fan-out for one window: operations
// plus touched accounts from one fetch, rights and votes from their own
// endpoints. Operations are authoritative, the rest decodes tolerantly.
func (c *Crawler) fetchBlockData(ctx context.Context, blocks []*rpc.Block) ([]*models.BlockData, error) {
	hashes := make([]chain.BlockHash, len(blocks))
	byHash := make(map[chain.BlockHash]*models.BlockData, len(blocks))
	data := make([]*models.BlockData, len(blocks))
	for i, b := range blocks {
		hashes[i] = b.Hash
		data[i] = &models.BlockData{Block: b}
		byHash[b.Hash] = data[i]
	}

	// operation groups and touched accounts share one fetch
	opsFetcher := rpc.DecodeBoth(
		rpc.Fetcher[chain.BlockHash, []*rpc.OperationGroup]{
			Fetch: rpc.ClientFetch(c.client, func(h chain.BlockHash) string {
				return fmt.Sprintf("blocks/%s/operations", h)
			}, c.fetchConcurrency),
			Decode: rpc.DecodeOperationGroups,
		},
		rpc.DecodeTouchedAccounts,
	)
	opsResults, err := opsFetcher.Run(ctx, hashes)
	if err != nil {
		return nil, err
	}
	for _, r := range opsResults {
		d := byHash[r.Input]
		d.Groups = r.Out.First
		d.TouchedAccounts = r.Out.Second
	}

	if err := fetchTolerant(ctx, c, hashes, byHash, rpc.BakingRightsPath, rpc.DecodeBakingRights,
		func(d *models.BlockData, v []rpc.BakingRight) { d.Baking = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash, rpc.EndorsingRightsPath, rpc.DecodeEndorsingRights,
		func(d *models.BlockData, v []rpc.EndorsingRight) { d.Endorsing = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash,
		func(h chain.BlockHash) string { return rpc.VotesPath(h, "current_quorum") },
		rpc.DecodeCurrentQuorum,
		func(d *models.BlockData, v int64) { d.CurrentQuorum = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash,
		func(h chain.BlockHash) string { return rpc.VotesPath(h, "current_proposal") },
		rpc.DecodeCurrentProposal,
		func(d *models.BlockData, v chain.ProtocolHash) { d.CurrentProposal = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash,
		func(h chain.BlockHash) string { return rpc.VotesPath(h, "proposals") },
		rpc.DecodeProposals,
		func(d *models.BlockData, v []rpc.ProposalSupport) { d.Proposals = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash,
		func(h chain.BlockHash) string { return rpc.VotesPath(h, "listings") },
		rpc.DecodeListings,
		func(d *models.BlockData, v []rpc.RollListing) { d.Listings = v }); err != nil {
		return nil, err
	}
	if err := fetchTolerant(ctx, c, hashes, byHash,
		func(h chain.BlockHash) string { return rpc.VotesPath(h, "ballot_list") },
		rpc.DecodeBallotList,
		func(d *models.BlockData, v []rpc.BallotEntry) { d.Ballots = v }); err != nil {
		return nil, err
	}
	return data, nil
}

// fetchTolerant fans one endpoint out over a window. Transport failures
// and decode errors leave the field at its neutral value; votes and rights
// are non-authoritative.
func fetchTolerant[V any](ctx context.Context, c *Crawler, hashes []chain.BlockHash,
	byHash map[chain.BlockHash]*models.BlockData,
	path func(chain.BlockHash) string,
	decode func([]byte) (V, error),
	assign func(*models.BlockData, V)) error {

	pairs, err := rpc.BatchedGetEach(ctx, c.client, hashes, path, c.fetchConcurrency)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if p.Err != nil {
			continue
		}
		v, err := decode(p.Body)
		if err != nil {
			log.Warnf("tolerant decode %s: %v", path(p.Input), err)
			continue
		}
		assign(byHash[p.Input], v)
	}
	return nil
}

// buildBlock turns fetched data into the row set the indexes consume.
func buildBlock(d *models.BlockData) *models.Block {
	block := models.NewBlock(d)
	for opN, g := range d.Groups {
		block.Groups = append(block.Groups, models.NewOperationGroup(g, block))
		block.Ops = append(block.Ops, models.NewOps(g, block, opN)...)
	}
	return block
}
