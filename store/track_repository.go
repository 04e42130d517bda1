// SPDX-License-Identifier: EPL-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ik5/multitrack/engine"
)

// trackRow is the tracks table.
type trackRow struct {
	ID          string  `gorm:"primaryKey;size:36"`
	ProjectID   string  `gorm:"size:36;index;not null"`
	TrackNumber int     `gorm:"not null;default:0"`
	Title       string  `gorm:"size:255"`
	AudioURL    string  `gorm:"column:audio_url;size:1024"`
	Volume      float64 `gorm:"not null;default:1"`
	Pan         float64 `gorm:"not null;default:0"`
	Muted       bool    `gorm:"not null;default:false"`
	Duration    float64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (trackRow) TableName() string {
	return "tracks"
}

func (r trackRow) record() engine.TrackRecord {
	return engine.TrackRecord{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		TrackNumber: r.TrackNumber,
		Title:       r.Title,
		AudioURL:    r.AudioURL,
		Volume:      r.Volume,
		Pan:         r.Pan,
		Muted:       r.Muted,
		Duration:    r.Duration,
	}
}

func rowFromRecord(rec engine.TrackRecord) trackRow {
	return trackRow{
		ID:          rec.ID,
		ProjectID:   rec.ProjectID,
		TrackNumber: rec.TrackNumber,
		Title:       rec.Title,
		AudioURL:    rec.AudioURL,
		Volume:      rec.Volume,
		Pan:         rec.Pan,
		Muted:       rec.Muted,
		Duration:    rec.Duration,
	}
}

// updateColumns maps the set fields of u to column values.
func updateColumns(u engine.TrackUpdate) map[string]any {
	cols := make(map[string]any)
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.AudioURL != nil {
		cols["audio_url"] = *u.AudioURL
	}
	if u.Volume != nil {
		cols["volume"] = *u.Volume
	}
	if u.Pan != nil {
		cols["pan"] = *u.Pan
	}
	if u.Muted != nil {
		cols["muted"] = *u.Muted
	}
	if u.Duration != nil {
		cols["duration"] = *u.Duration
	}
	return cols
}

// OpenMySQL connects gorm to MySQL and sizes the connection pool.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// CloseDB closes the pool behind db.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TrackRepository stores tracks in MySQL. It implements engine.TrackStore.
type TrackRepository struct {
	db *gorm.DB
}

func NewTrackRepository(db *gorm.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Migrate creates or updates the tracks table.
func (r *TrackRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&trackRow{}); err != nil {
		return fmt.Errorf("migrating tracks: %w", err)
	}
	return nil
}

// ListTracks returns a project's tracks by ascending track number.
func (r *TrackRepository) ListTracks(ctx context.Context, projectID string) ([]engine.TrackRecord, error) {
	var rows []trackRow
	if err := r.listQuery(ctx, projectID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}

	recs := make([]engine.TrackRecord, len(rows))
	for i, row := range rows {
		recs[i] = row.record()
	}
	return recs, nil
}

// InsertTrack stores rec, assigning an id when it has none.
func (r *TrackRepository) InsertTrack(ctx context.Context, rec engine.TrackRecord) (engine.TrackRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	row := rowFromRecord(rec)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return engine.TrackRecord{}, fmt.Errorf("inserting track: %w", err)
	}
	return row.record(), nil
}

func (r *TrackRepository) UpdateTrack(ctx context.Context, id string, u engine.TrackUpdate) error {
	if u.Empty() {
		return nil
	}

	res := r.updateQuery(ctx, id, u)
	if res.Error != nil {
		return fmt.Errorf("updating track %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return engine.ErrTrackNotFound
	}
	return nil
}

func (r *TrackRepository) DeleteTrack(ctx context.Context, id string) error {
	if err := r.deleteQuery(ctx, id).Error; err != nil {
		return fmt.Errorf("deleting track %s: %w", id, err)
	}
	return nil
}

func (r *TrackRepository) listQuery(ctx context.Context, projectID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("track_number ASC")
}

func (r *TrackRepository) updateQuery(ctx context.Context, id string, u engine.TrackUpdate) *gorm.DB {
	return r.db.WithContext(ctx).Model(&trackRow{}).
		Where("id = ?", id).
		Updates(updateColumns(u))
}

func (r *TrackRepository) deleteQuery(ctx context.Context, id string) *gorm.DB {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&trackRow{})
}

var _ engine.TrackStore = (*TrackRepository)(nil)
