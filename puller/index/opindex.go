// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package index

import (
	"context"
	"errors"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/puller/models"
)

const OpIndexKey = "op"

var (
	ErrNoOpEntry = errors.New("op not indexed")
)

// OpIndex stores operation groups and their operations. Groups go first so
// ops can resolve their group hash at commit time.
type OpIndex struct {
	db *gorm.DB
}

func NewOpIndex(db *gorm.DB) *OpIndex {
	return &OpIndex{db}
}

func (idx *OpIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *OpIndex) Key() string {
	return OpIndexKey
}

func (idx *OpIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	for _, g := range block.Groups {
		if !tx.Where("row_id = ?", g.RowId).First(&models.OperationGroup{}).RecordNotFound() {
			continue
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}
	}
	// todo batch insert
	for _, op := range block.Ops {
		if !tx.Where("row_id = ?", op.RowId).First(&models.Op{}).RecordNotFound() {
			continue
		}
		if err := tx.Create(op).Error; err != nil {
			return err
		}
	}
	return nil
}

func (idx *OpIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting ops at height %d", height)
	if err := tx.Where("height = ?", height).Delete(&models.Op{}).Error; err != nil {
		return err
	}
	return tx.Where("height = ?", height).Delete(&models.OperationGroup{}).Error
}

func (idx *OpIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Reorg deleting ops above height %d", height)
	if err := tx.Where("height > ?", height).Delete(&models.Op{}).Error; err != nil {
		return err
	}
	return tx.Where("height > ?", height).Delete(&models.OperationGroup{}).Error
}
