package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"testons-go/server/internal/models"
)

// GormKV stores documents in the postgres documents table.
type GormKV struct {
	db *gorm.DB
}

// NewGormKV wraps an open, migrated connection.
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

func (g *GormKV) Get(ctx context.Context, key string) ([]byte, error) {
	var doc models.Document
	err := g.db.WithContext(ctx).First(&doc, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (g *GormKV) Put(ctx context.Context, key string, value []byte) error {
	doc := models.Document{Key: key, Value: value}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
}

func (g *GormKV) Delete(ctx context.Context, key string) error {
	result := g.db.WithContext(ctx).Delete(&models.Document{}, "key = ?", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormKV) List(ctx context.Context, prefix string) ([]Entry, error) {
	var docs []models.Document
	err := g.db.WithContext(ctx).
		Where("key LIKE ?", escapeLike(prefix)+"%").
		Order("key").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(docs))
	for i, d := range docs {
		entries[i] = Entry{Key: d.Key, Value: d.Value}
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
