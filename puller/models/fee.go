// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package models

import (
	"time"

	"tezos_etl/chain"
)

// Fee is an append-only moving-average summary of recent operation fees of
// one kind. Low and high are one standard deviation around the mean, low
// clamped to zero.
type Fee struct {
	RowId     uint64       `gorm:"primary_key;AUTO_INCREMENT;column:row_id"   json:"row_id"`
	Low       int64        `gorm:"column:low"      json:"low"`
	Medium    int64        `gorm:"column:medium"      json:"medium"`
	High      int64        `gorm:"column:high"      json:"high"`
	Timestamp time.Time    `gorm:"column:time"      json:"time"`
	Kind      chain.OpType `gorm:"column:kind;index:kind"      json:"kind"`
	Cycle     int64        `gorm:"column:cycle"      json:"cycle"`
	Height    int64        `gorm:"column:height"      json:"height"`
}

func (f Fee) ID() uint64 {
	return f.RowId
}
