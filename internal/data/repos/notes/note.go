package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type NoteRepo interface {
	Create(dbc dbctx.Context, note *domain.Note) (*domain.Note, error)
	GetByID(dbc dbctx.Context, id int64) (*domain.Note, error)
	ListAll(dbc dbctx.Context) ([]*domain.Note, error)
	ListByPatient(dbc dbctx.Context, patientID int64) ([]*domain.Note, error)
	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error

	// UpdateStatus writes the status plus any extra fields in one UPDATE
	// and returns the refreshed note. An ERROR write never touches fields
	// beyond those explicitly passed, so previously persisted transcript
	// and form data survive.
	UpdateStatus(dbc dbctx.Context, id int64, status domain.NoteStatus, extra map[string]interface{}) (*domain.Note, error)

	// MergeForms deep-merges partial into the note's forms JSON inside a
	// single transaction with the row locked, so two concurrent merges for
	// different form keys both land.
	MergeForms(dbc dbctx.Context, id int64, partial map[string]any) (*domain.Note, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{
		db:  db,
		log: baseLog.With("repo", "NoteRepo"),
	}
}

func (r *noteRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *noteRepo) Create(dbc dbctx.Context, note *domain.Note) (*domain.Note, error) {
	if note == nil {
		return nil, fmt.Errorf("nil note")
	}
	if note.Status == "" {
		note.Status = domain.StatusPending
	}
	if len(note.Forms) == 0 {
		note.Forms = datatypes.JSON([]byte("{}"))
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *noteRepo) GetByID(dbc dbctx.Context, id int64) (*domain.Note, error) {
	var note domain.Note
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Audios", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepo) ListAll(dbc dbctx.Context) ([]*domain.Note, error) {
	var out []*domain.Note
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Audios", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *noteRepo) ListByPatient(dbc dbctx.Context, patientID int64) ([]*domain.Note, error) {
	var out []*domain.Note
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Audios", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *noteRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error {
	if id == 0 {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Note{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *noteRepo) UpdateStatus(dbc dbctx.Context, id int64, status domain.NoteStatus, extra map[string]interface{}) (*domain.Note, error) {
	updates := map[string]interface{}{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := r.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return r.GetByID(dbc, id)
}

func (r *noteRepo) MergeForms(dbc dbctx.Context, id int64, partial map[string]any) (*domain.Note, error) {
	var merged map[string]any
	err := r.handle(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var note domain.Note
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&note, id).Error; err != nil {
			return err
		}

		current := map[string]any{}
		if len(note.Forms) > 0 {
			if err := json.Unmarshal(note.Forms, &current); err != nil {
				return fmt.Errorf("decode forms: %w", err)
			}
		}

		merged = deepMerge(current, partial)
		raw, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return tx.Model(&domain.Note{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"forms":      datatypes.JSON(raw),
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(dbc, id)
}

// deepMerge merges overlay into base recursively: nested objects merge key
// by key, everything else (scalars, arrays, explicit null) replaces the
// existing value. Keys absent from overlay are untouched.
func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		existing, ok := out[k].(map[string]any)
		incoming, incomingIsMap := v.(map[string]any)
		if ok && incomingIsMap {
			out[k] = deepMerge(existing, incoming)
			continue
		}
		out[k] = v
	}
	return out
}
