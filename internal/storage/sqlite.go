//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const errDBClientNil = "db client is nil"

// configRowID is the primary key of the single match_configs row.
const configRowID = 1

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type TuneSetting struct {
	SettingID     string `gorm:"primaryKey;type:varchar(32)" json:"setting_id"`
	TuneID        string `gorm:"type:varchar(32);index:idx_tune" json:"tune_id"`
	Transcription string `json:"transcription"`
	CreatedAt     time.Time
}

type TuneAlias struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	TuneID string `gorm:"type:varchar(32);index:idx_alias_tune" json:"tune_id"`
	Name   string `json:"name"`
}

type MatchConfig struct {
	ID              uint `gorm:"primaryKey"`
	WindowSize      int
	HopSize         int
	NGramLength     int
	PitchQuantum    int
	MinNGramHits    int
	MatchReward     float64
	PitchPenalty    float64
	DurationPenalty float64
	GapPenalty      float64
	MismatchPenalty float64
	UpdatedAt       time.Time
}

// ErrNoIndexTables is returned by NewDBClientReadOnly when the database does
// not carry the index tables.
var ErrNoIndexTables = errors.New("database has no tune index tables")

// NewDBClientWithPath opens the database at dbPath for writing, creating the
// file and migrating the schema as needed.
func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	client, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := client.DB.AutoMigrate(&TuneSetting{}, &TuneAlias{}, &MatchConfig{}); err != nil {
		client.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return client, nil
}

// NewDBClientReadOnly opens an existing database without modifying it. The
// settings table must be present.
func NewDBClientReadOnly(dbPath string) (*DBClient, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}

	client, err := open("file:" + filepath.ToSlash(dbPath) + "?mode=ro")
	if err != nil {
		return nil, err
	}

	m := client.DB.Migrator()
	if !m.HasTable(&TuneSetting{}) || !m.HasTable(&TuneAlias{}) {
		client.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoIndexTables, dbPath)
	}
	return client, nil
}

func open(dsn string) (*DBClient, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ReplaceIndex overwrites the stored index with the given configuration,
// settings and aliases in one transaction.
func (c *DBClient) ReplaceIndex(cfg model.TuneSettings, settings []model.Setting, aliases map[string][]string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&TuneSetting{}).Error; err != nil {
			return fmt.Errorf("clearing settings: %w", err)
		}
		if err := all.Delete(&TuneAlias{}).Error; err != nil {
			return fmt.Errorf("clearing aliases: %w", err)
		}

		row := configRow(cfg)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		rows := make([]TuneSetting, 0, len(settings))
		for _, s := range settings {
			rows = append(rows, TuneSetting{
				SettingID:     s.SettingID,
				TuneID:        s.TuneID,
				Transcription: s.Transcription.String(),
			})
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("batch insert settings: %w", err)
			}
		}

		aliasRows := make([]TuneAlias, 0, len(aliases))
		for _, tuneID := range sortedKeys(aliases) {
			for _, name := range aliases[tuneID] {
				aliasRows = append(aliasRows, TuneAlias{TuneID: tuneID, Name: name})
			}
		}
		if len(aliasRows) > 0 {
			if err := tx.CreateInBatches(aliasRows, 500).Error; err != nil {
				return fmt.Errorf("batch insert aliases: %w", err)
			}
		}
		return nil
	})
}

// LoadConfig returns the stored match configuration. ok is false when the
// database carries none.
func (c *DBClient) LoadConfig() (cfg model.TuneSettings, ok bool, err error) {
	if c == nil || c.DB == nil {
		return cfg, false, errors.New(errDBClientNil)
	}

	if !c.DB.Migrator().HasTable(&MatchConfig{}) {
		return cfg, false, nil
	}

	var row MatchConfig
	err = c.DB.First(&row, configRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("querying config: %w", err)
	}

	return model.TuneSettings{
		WindowSize:      row.WindowSize,
		HopSize:         row.HopSize,
		NGramLength:     row.NGramLength,
		PitchQuantum:    row.PitchQuantum,
		MinNGramHits:    row.MinNGramHits,
		MatchReward:     row.MatchReward,
		PitchPenalty:    row.PitchPenalty,
		DurationPenalty: row.DurationPenalty,
		GapPenalty:      row.GapPenalty,
		MismatchPenalty: row.MismatchPenalty,
	}, true, nil
}

// LoadSettings returns every stored setting ordered by setting id.
func (c *DBClient) LoadSettings() ([]model.Setting, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []TuneSetting
	if err := c.DB.Order("setting_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	out := make([]model.Setting, 0, len(rows))
	for _, r := range rows {
		tr, err := model.ParseTranscription(r.Transcription)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", r.SettingID, err)
		}
		out = append(out, model.Setting{TuneID: r.TuneID, SettingID: r.SettingID, Transcription: tr})
	}
	return out, nil
}

// LoadAliases returns tune names keyed by tune id, in insertion order.
func (c *DBClient) LoadAliases() (map[string][]string, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []TuneAlias
	if err := c.DB.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}

	out := make(map[string][]string)
	for _, r := range rows {
		out[r.TuneID] = append(out[r.TuneID], r.Name)
	}
	return out, nil
}

// Counts reports the number of stored settings, distinct tunes and aliases.
func (c *DBClient) Counts() (settings, tunes, aliases int64, err error) {
	if c == nil || c.DB == nil {
		return 0, 0, 0, errors.New(errDBClientNil)
	}
	if err = c.DB.Model(&TuneSetting{}).Count(&settings).Error; err != nil {
		return
	}
	if err = c.DB.Model(&TuneSetting{}).Distinct("tune_id").Count(&tunes).Error; err != nil {
		return
	}
	err = c.DB.Model(&TuneAlias{}).Count(&aliases).Error
	return
}

func configRow(cfg model.TuneSettings) MatchConfig {
	return MatchConfig{
		ID:              configRowID,
		WindowSize:      cfg.WindowSize,
		HopSize:         cfg.HopSize,
		NGramLength:     cfg.NGramLength,
		PitchQuantum:    cfg.PitchQuantum,
		MinNGramHits:    cfg.MinNGramHits,
		MatchReward:     cfg.MatchReward,
		PitchPenalty:    cfg.PitchPenalty,
		DurationPenalty: cfg.DurationPenalty,
		GapPenalty:      cfg.GapPenalty,
		MismatchPenalty: cfg.MismatchPenalty,
	}
}
