package migration

import (
	"database/sql"

	"github.com/jinzhu/gorm"
	"github.com/pressly/goose"
	"tezos_etl/puller/models"
)

func init() {
	goose.AddMigration(Up20200910103420, Down20200910103420)
}

func Up20200910103420(tx *sql.Tx) error {
	// This code is executed when the migration is applied.
	db, err := gorm.Open("mysql", tx)
	if err != nil {
		return err
	}
	err = db.AutoMigrate(
		&models.Block{}, &models.OperationGroup{}, &models.Op{},
		&models.Account{}, &models.AccountsCheckpoint{},
		&models.Delegate{}, &models.DelegatesCheckpoint{},
		&models.Right{}, &models.Roll{}, &models.Proposal{}, &models.Ballot{},
		&models.Fee{}, &models.HarvesterStatus{}).Error
	return err
}

func Down20200910103420(tx *sql.Tx) error {
	// This code is executed when the migration is rolled back.
	db, err := gorm.Open("mysql", tx)
	if err != nil {
		return err
	}
	err = db.DropTableIfExists(
		&models.Block{}, &models.OperationGroup{}, &models.Op{},
		&models.Account{}, &models.AccountsCheckpoint{},
		&models.Delegate{}, &models.DelegatesCheckpoint{},
		&models.Right{}, &models.Roll{}, &models.Proposal{}, &models.Ballot{},
		&models.Fee{}, &models.HarvesterStatus{}).Error
	return err
}
