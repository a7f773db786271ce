// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"

	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
)

// checkpointEntry is one unit of drain work: an id re-read against the
// highest block that referenced it.
type checkpointEntry struct {
	Id      string
	BlockId chain.BlockHash
	Height  int64
}

// DrainAccounts re-reads the context state of every checkpointed account
// at its highest referencing block and upserts the result. Entries whose
// state is now persisted at an equal or higher height are pruned; failed
// fetches stay queued for the next cycle.
func (c *Crawler) DrainAccounts(ctx context.Context) error {
	entries, err := c.pendingCheckpoints(ctx, "accounts_checkpoint", "address")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	log.Debugf("Draining %d checkpointed accounts.", len(entries))

	pairs, err := rpc.BatchedGetEach(ctx, c.client, entries, func(e checkpointEntry) string {
		return rpc.AccountPath(e.BlockId, e.Id)
	}, c.accountsConcurrency)
	if err != nil {
		return err
	}

	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, p := range pairs {
		if p.Err != nil {
			continue // stays in checkpoint, retried next cycle
		}
		acc, err := rpc.DecodeAccount(p.Body)
		if err != nil {
			log.Warnf("decode account %s: %v", p.Input.Id, err)
			continue
		}
		if acc == nil {
			continue
		}
		row := models.NewAccount(p.Input.Id, p.Input.BlockId, p.Input.Height, acc)
		if err := models.UpsertAccount(tx, row); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("address = ? AND height <= ?", p.Input.Id, p.Input.Height).
			Delete(&models.AccountsCheckpoint{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

// DrainDelegates is the baker analogue of DrainAccounts.
func (c *Crawler) DrainDelegates(ctx context.Context) error {
	entries, err := c.pendingCheckpoints(ctx, "delegates_checkpoint", "pkh")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	log.Debugf("Draining %d checkpointed delegates.", len(entries))

	pairs, err := rpc.BatchedGetEach(ctx, c.client, entries, func(e checkpointEntry) string {
		return rpc.DelegatePath(e.BlockId, e.Id)
	}, c.accountsConcurrency)
	if err != nil {
		return err
	}

	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, p := range pairs {
		if p.Err != nil {
			continue
		}
		del, err := rpc.DecodeDelegate(p.Body)
		if err != nil {
			log.Warnf("decode delegate %s: %v", p.Input.Id, err)
			continue
		}
		if del == nil {
			continue
		}
		row := models.NewDelegate(p.Input.Id, p.Input.BlockId, p.Input.Height, del)
		if err := models.UpsertDelegate(tx, row); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("pkh = ? AND height <= ?", p.Input.Id, p.Input.Height).
			Delete(&models.DelegatesCheckpoint{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

// pendingCheckpoints selects each distinct id with its highest
// referencing block.
func (c *Crawler) pendingCheckpoints(ctx context.Context, table, idCol string) ([]checkpointEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sql := "SELECT c." + idCol + " AS id, c.block_id, c.height FROM " + table + " c " +
		"JOIN (SELECT " + idCol + ", MAX(height) AS h FROM " + table + " GROUP BY " + idCol + ") m " +
		"ON c." + idCol + " = m." + idCol + " AND c.height = m.h"
	rows, err := c.db.Raw(sql).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]checkpointEntry, 0)
	for rows.Next() {
		var e checkpointEntry
		if err := rows.Scan(&e.Id, &e.BlockId, &e.Height); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
