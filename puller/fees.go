// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package puller

import (
	"context"
	"math"
	"time"

	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/puller/models"
	"tezos_etl/utils"
)

// AggregateFees summarizes the fees of the most recent operations into one
// band row per kind: medium is the mean, low and high one standard
// deviation around it, low clamped to zero. Values are floored integers.
func (c *Crawler) AggregateFees(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var ops []models.Op
	err := c.db.Select("type, fee, cycle, height").
		Order("height desc").
		Limit(c.feeWindow).
		Find(&ops).Error
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	var latestCycle, latestHeight int64
	byKind := make(map[chain.OpType][]int64)
	for _, op := range ops {
		byKind[op.Type] = append(byKind[op.Type], op.Fee)
		latestCycle = util.Max64(latestCycle, op.Cycle)
		latestHeight = util.Max64(latestHeight, op.Height)
	}

	now := time.Now().UTC()
	rows := make([]*models.Fee, 0, len(byKind))
	for kind, fees := range byKind {
		low, medium, high := feeBands(fees)
		rows = append(rows, &models.Fee{
			Low:       low,
			Medium:    medium,
			High:      high,
			Timestamp: now,
			Kind:      kind,
			Cycle:     latestCycle,
			Height:    latestHeight,
		})
	}

	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, row := range rows {
		if err := tx.Create(row).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	log.Debugf("Stored fee bands for %d operation kinds at height %d.", len(rows), latestHeight)
	return nil
}

// feeBands turns a fee sample into floored one-sigma bands, the low band
// clamped to zero.
func feeBands(fees []int64) (low, medium, high int64) {
	mean, sigma := meanStddev(fees)
	low = util.Max64(0, int64(math.Floor(mean-sigma)))
	medium = int64(math.Floor(mean))
	high = int64(math.Floor(mean + sigma))
	return
}

func meanStddev(values []int64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
