// Copyright (c) 2020 Blockwatch Data Inc.

package index

import (
	"context"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
)

const DelegateIndexKey = "delegate"

// DelegateIndex enqueues the bakers a block references (its own baker plus
// delegation and origination targets) for the delegate checkpoint drain.
type DelegateIndex struct {
	db *gorm.DB
}

func NewDelegateIndex(db *gorm.DB) *DelegateIndex {
	return &DelegateIndex{db}
}

func (idx *DelegateIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *DelegateIndex) Key() string {
	return DelegateIndexKey
}

func (idx *DelegateIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	pkhs := touchedDelegates(block)
	if len(pkhs) == 0 {
		return nil
	}
	ins := make([]*models.DelegatesCheckpoint, 0, len(pkhs))
	for _, pkh := range pkhs {
		ins = append(ins, &models.DelegatesCheckpoint{
			RowId:   models.CheckpointRowId(pkh, block.Hash),
			Pkh:     pkh,
			BlockId: block.Hash,
			Height:  block.Height,
		})
	}
	batch := 200
	if err := models.BatchInsertDelegatesCheckpoint(ins, batch, tx); err != nil {
		log.Errorf("batch insert delegates checkpoint error: %v", err)
		return err
	}
	return nil
}

func touchedDelegates(block *models.Block) []string {
	seen := make(map[string]struct{})
	pkhs := make([]string, 0, 8)
	add := func(pkh string) {
		if pkh == "" {
			return
		}
		if _, ok := seen[pkh]; ok {
			return
		}
		seen[pkh] = struct{}{}
		pkhs = append(pkhs, pkh)
	}
	add(block.Baker)
	if block.Data != nil {
		for _, g := range block.Data.Groups {
			for _, content := range g.Contents {
				switch op := content.(type) {
				case *rpc.DelegationOp:
					add(op.Delegate)
				case *rpc.OriginationOp:
					add(op.Delegate)
				}
			}
		}
	}
	return pkhs
}

func (idx *DelegateIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting delegates read at height %d", height)
	if err := tx.Where("height = ?", height).Delete(&models.DelegatesCheckpoint{}).Error; err != nil {
		return err
	}
	return tx.Where("height = ?", height).Delete(&models.Delegate{}).Error
}

func (idx *DelegateIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Reorg deleting delegates above height %d", height)
	if err := tx.Where("height > ?", height).Delete(&models.DelegatesCheckpoint{}).Error; err != nil {
		return err
	}
	return tx.Where("height > ?", height).Delete(&models.Delegate{}).Error
}
