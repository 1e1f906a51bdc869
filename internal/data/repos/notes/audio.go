package notes

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type AudioRepo interface {
	Create(dbc dbctx.Context, audio *domain.Audio) (*domain.Audio, error)
	GetByID(dbc dbctx.Context, id int64) (*domain.Audio, error)
	ListByNote(dbc dbctx.Context, noteID int64) ([]*domain.Audio, error)
	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error
}

type audioRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAudioRepo(db *gorm.DB, baseLog *logger.Logger) AudioRepo {
	return &audioRepo{
		db:  db,
		log: baseLog.With("repo", "AudioRepo"),
	}
}

func (r *audioRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *audioRepo) Create(dbc dbctx.Context, audio *domain.Audio) (*domain.Audio, error) {
	if audio == nil {
		return nil, fmt.Errorf("nil audio")
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(audio).Error; err != nil {
		return nil, err
	}
	return audio, nil
}

func (r *audioRepo) GetByID(dbc dbctx.Context, id int64) (*domain.Audio, error) {
	var audio domain.Audio
	err := r.handle(dbc).WithContext(dbc.Ctx).First(&audio, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &audio, nil
}

func (r *audioRepo) ListByNote(dbc dbctx.Context, noteID int64) ([]*domain.Audio, error) {
	var out []*domain.Audio
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("note_id = ?", noteID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *audioRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	// audio rows carry no updated_at column
	delete(updates, "updated_at")
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Audio{}).
		Where("id = ?", id).
		Updates(updates).Error
}
