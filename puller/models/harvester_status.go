package models

import "github.com/jinzhu/gorm"

// HarvesterStatus is a small key/value table the crawler reports its sync
// progress into. Readers watch the freshness gap between the node head and
// max_indexed_height here.
type HarvesterStatus struct {
	Key   string `gorm:"column:key;primary_key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
	Notes string `gorm:"column:notes" json:"notes"`
}

const (
	StatusKeyMaxIndexedHeight = "max_indexed_height"
	StatusKeySyncState        = "sync_state"
)

func (HarvesterStatus) TableName() string {
	return "harvester_status"
}

func UpdateHarvesterStatus(db *gorm.DB, key, value string) error {
	sql := "INSERT INTO harvester_status (`key`, `value`) VALUES(?, ?) ON DUPLICATE KEY UPDATE `value` = ?"
	return db.Exec(sql, key, value, value).Error
}
