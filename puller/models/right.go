// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	"tezos_etl/chain"
)

// Right is one baking or endorsing entitlement as listed by the helpers
// endpoints. Endorsing slots become one row per slot.
type Right struct {
	RowId         uint64          `gorm:"primary_key;column:row_id"   json:"row_id"`       // internal: xxhash of (type, height, priority)
	Type          chain.RightType `gorm:"column:type;index:ht"      json:"type"`           // baking or endorsing
	Height        int64           `gorm:"column:height;index:ht"      json:"height"`       // bc: block height the right applies to
	Cycle         int64           `gorm:"column:cycle;index:cycle_index"  json:"cycle"`    // bc: block cycle (tezos specific)
	Priority      int             `gorm:"column:priority"      json:"priority"`            // baking prio or endorsing slot
	Delegate      string          `gorm:"column:delegate;index:delegate"  json:"delegate"` // rights holder
	BlockId       chain.BlockHash `gorm:"column:block_id"      json:"block_id"`            // bc: block the listing was fetched at
	EstimatedTime time.Time       `gorm:"column:estimated_time"      json:"estimated_time"`
}

func (r *Right) ID() uint64 {
	return r.RowId
}

func (r *Right) SetID(id uint64) {
	r.RowId = id
}

func RightRowId(typ chain.RightType, height int64, priority int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d/%d/%d", typ, height, priority))
}
