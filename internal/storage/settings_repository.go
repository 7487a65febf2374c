package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"interview-assistant/internal/storage/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository keeps settings documents in the settings table.
type GormSettingsRepository struct {
	db     *gorm.DB
	outbox outboxWriter
}

var _ SettingsRepository = (*GormSettingsRepository)(nil)

func NewSettingsRepository(db *gorm.DB, eventsExchange string) *GormSettingsRepository {
	return &GormSettingsRepository{db: db, outbox: outboxWriter{exchange: eventsExchange}}
}

func (r *GormSettingsRepository) Load(ctx context.Context, key string, dest any) (bool, error) {
	var row models.Setting
	err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(row.Value, dest); err != nil {
		return true, fmt.Errorf("decode settings %q: %w", key, err)
	}
	return true, nil
}

func (r *GormSettingsRepository) Save(ctx context.Context, key string, value any) error {
	data, err := models.ToJSON(value)
	if err != nil {
		return fmt.Errorf("encode settings %q: %w", key, err)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&models.Setting{SettingKey: key, Value: data}).Error
		if err != nil {
			return err
		}
		return r.outbox.enqueue(tx, EventSettingsChanged, key, nil)
	})
}
