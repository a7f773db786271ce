// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/rpc"
)

// reorgCheck compares the stored block at the head's height range against
// the node's view. When the stored top is still on the canonical chain it
// returns the stored height unchanged; otherwise the old branch is
// discarded first.
func (c *Crawler) reorgCheck(ctx context.Context, head *rpc.Block) (int64, error) {
	tip := c.Tip()
	if tip.BestHeight < 0 {
		return tip.BestHeight, nil
	}
	node, err := c.client.GetBlockOffset(ctx, head.Hash, head.Header.Level-tip.BestHeight)
	if err != nil {
		return 0, err
	}
	if node.Hash == tip.BestHash {
		return tip.BestHeight, nil
	}
	log.Warnf("Reorg detected: stored %s at height %d, node has %s.", tip.BestHash, tip.BestHeight, node.Hash)
	if err := c.reorg(ctx, head); err != nil {
		return 0, err
	}
	return c.Tip().BestHeight, nil
}

// reorg walks backward from head until a stored block matches the node's
// canonical chain, then deletes every stored row above the match across
// all tables in a single transaction.
func (c *Crawler) reorg(ctx context.Context, head *rpc.Block) error {
	tip := c.Tip()
	var (
		matched     int64 = -1
		matchedHash chain.BlockHash
	)
	for height := tip.BestHeight; height >= 0; height-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		stored, err := c.indexer.BlockByHeight(ctx, height)
		if err == gorm.ErrRecordNotFound {
			continue
		} else if err != nil {
			return err
		}
		node, err := c.client.GetBlockOffset(ctx, head.Hash, head.Header.Level-height)
		if err != nil {
			return err
		}
		if node.Hash == stored.Hash {
			matched = height
			matchedHash = stored.Hash
			break
		}
	}
	if matched < 0 {
		// the whole stored chain is off the canonical branch
		log.Warnf("Reorg reaches below the lowest stored block, clearing all rows.")
		matchedHash = chain.ZeroBlockHash
	}
	if err := c.indexer.DeleteAbove(ctx, matched, matchedHash); err != nil {
		return fmt.Errorf("reorg delete above %d: %v", matched, err)
	}
	c.setTip(matchedHash, matched)
	log.Infof("Reorg complete, resuming from height %d.", matched)
	return nil
}
