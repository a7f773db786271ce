// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package index

import (
	"context"

	"github.com/jinzhu/gorm"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/puller/models"
)

const GovIndexKey = "gov"

// GovIndex stores the voting subtables of a block: roll listings, proposal
// support and the ballot list. Quorum and active proposal live on the
// block row itself.
type GovIndex struct {
	db *gorm.DB
}

func NewGovIndex(db *gorm.DB) *GovIndex {
	return &GovIndex{db}
}

func (idx *GovIndex) DB() *gorm.DB {
	return idx.db
}

func (idx *GovIndex) Key() string {
	return GovIndexKey
}

func (idx *GovIndex) ConnectBlock(ctx context.Context, block *models.Block, tx *gorm.DB) error {
	data := block.Data
	if data == nil {
		return nil
	}
	for _, v := range data.Listings {
		roll := &models.Roll{
			RowId:   models.RollRowId(block.Height, v.Pkh),
			Pkh:     v.Pkh,
			Rolls:   v.Rolls,
			BlockId: block.Hash,
			Height:  block.Height,
		}
		if !tx.Where("row_id = ?", roll.RowId).First(&models.Roll{}).RecordNotFound() {
			continue
		}
		if err := tx.Create(roll).Error; err != nil {
			return err
		}
	}
	for _, v := range data.Proposals {
		prop := &models.Proposal{
			RowId:   models.ProposalRowId(block.Height, v.Proposal),
			Hash:    v.Proposal,
			Rolls:   v.Rolls,
			BlockId: block.Hash,
			Height:  block.Height,
		}
		if !tx.Where("row_id = ?", prop.RowId).First(&models.Proposal{}).RecordNotFound() {
			continue
		}
		if err := tx.Create(prop).Error; err != nil {
			return err
		}
	}
	for _, v := range data.Ballots {
		ballot := &models.Ballot{
			RowId:   models.BallotRowId(block.Height, v.Pkh),
			Pkh:     v.Pkh,
			Ballot:  v.Ballot,
			BlockId: block.Hash,
			Height:  block.Height,
		}
		if !tx.Where("row_id = ?", ballot.RowId).First(&models.Ballot{}).RecordNotFound() {
			continue
		}
		if err := tx.Create(ballot).Error; err != nil {
			return err
		}
	}
	return nil
}

func (idx *GovIndex) DeleteBlock(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Rollback deleting voting data at height %d", height)
	return idx.delete(tx.Where("height = ?", height))
}

func (idx *GovIndex) DeleteAbove(ctx context.Context, height int64, tx *gorm.DB) error {
	log.Debugf("Reorg deleting voting data above height %d", height)
	return idx.delete(tx.Where("height > ?", height))
}

func (idx *GovIndex) delete(scope *gorm.DB) error {
	if err := scope.Delete(&models.Roll{}).Error; err != nil {
		return err
	}
	if err := scope.Delete(&models.Proposal{}).Error; err != nil {
		return err
	}
	return scope.Delete(&models.Ballot{}).Error
}
