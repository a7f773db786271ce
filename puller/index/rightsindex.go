// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package index

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/chain"
	"tezos_etl/puller/models"
)

const RightsIndexKey = "rights"

type RightsIndex struct {
	db *gorm.DB
}

func NewRightsIndex(db *gorm.DB) *RightsIndex {
	return &RightsIndex{db}
}

func (idx *RightsIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *RightsIndex) Key() string {
	return RightsIndexKey
}

func (idx *RightsIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	data := block.Data
	if data == nil || (len(data.Baking) == 0 && len(data.Endorsing) == 0) {
		return nil
	}

	ins := make([]*models.Right, 0, len(data.Baking)+len(data.Endorsing))
	for _, v := range data.Baking {
		ins = append(ins, &models.Right{
			RowId:         models.RightRowId(chain.RightTypeBaking, v.Level, v.Priority),
			Type:          chain.RightTypeBaking,
			Height:        v.Level,
			Cycle:         block.Cycle,
			Priority:      v.Priority,
			Delegate:      v.Delegate,
			BlockId:       block.Hash,
			EstimatedTime: v.EstimatedTime,
		})
	}
	// endorsing rights expand to one row per slot
	for _, v := range data.Endorsing {
		for _, slot := range v.Slots {
			ins = append(ins, &models.Right{
				RowId:         models.RightRowId(chain.RightTypeEndorsing, v.Level, slot),
				Type:          chain.RightTypeEndorsing,
				Height:        v.Level,
				Cycle:         block.Cycle,
				Priority:      slot,
				Delegate:      v.Delegate,
				BlockId:       block.Hash,
				EstimatedTime: v.EstimatedTime,
			})
		}
	}

	if len(ins) != 0 {
		batch := 200
		if err := BatchInsertRights(ins, batch, tx); err != nil {
			log.Errorf("batch insert rights error: %v", err)
			return err
		}
	}
	return nil
}

func BatchInsertRights(records []*models.Right, batch int, db *gorm.DB) error {
	if batch == 0 {
		batch = 1
	}
	sql := "INSERT IGNORE INTO rights(row_id,type,height,cycle,priority,delegate,block_id,estimated_time) VALUES "
	val := ""
	for index, value := range records {
		// the node omits estimated times on past rights
		ts := "NULL"
		if !value.EstimatedTime.IsZero() {
			ts = "'" + value.EstimatedTime.UTC().Format("2006-01-02 15:04:05") + "'"
		}
		if index > 0 && index%batch == 0 || index == len(records)-1 {
			val += fmt.Sprintf("(%d,%d,%d,%d,%d,'%s','%s',%s);", value.RowId, value.Type, value.Height, value.Cycle,
				value.Priority, value.Delegate, value.BlockId, ts)
			if err := db.Exec(sql + val).Error; err != nil {
				return err
			}
			val = ""
		} else {
			val += fmt.Sprintf("(%d,%d,%d,%d,%d,'%s','%s',%s),", value.RowId, value.Type, value.Height, value.Cycle,
				value.Priority, value.Delegate, value.BlockId, ts)
		}
	}
	return nil
}

func (idx *RightsIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting rights fetched at height %d", height)
	return tx.Where("height = ?", height).Delete(&models.Right{}).Error
}

func (idx *RightsIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Reorg deleting rights above height %d", height)
	return tx.Where("height > ?", height).Delete(&models.Right{}).Error
}
