package notes

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type PatientRepo interface {
	Create(dbc dbctx.Context, patient *domain.Patient) (*domain.Patient, error)
	GetByID(dbc dbctx.Context, id int64) (*domain.Patient, error)
	ListAll(dbc dbctx.Context) ([]*domain.Patient, error)
}

type patientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatientRepo(db *gorm.DB, baseLog *logger.Logger) PatientRepo {
	return &patientRepo{
		db:  db,
		log: baseLog.With("repo", "PatientRepo"),
	}
}

func (r *patientRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *patientRepo) Create(dbc dbctx.Context, patient *domain.Patient) (*domain.Patient, error) {
	if patient == nil {
		return nil, fmt.Errorf("nil patient")
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(patient).Error; err != nil {
		return nil, err
	}
	return patient, nil
}

func (r *patientRepo) GetByID(dbc dbctx.Context, id int64) (*domain.Patient, error) {
	var patient domain.Patient
	err := r.handle(dbc).WithContext(dbc.Ctx).First(&patient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepo) ListAll(dbc dbctx.Context) ([]*domain.Patient, error) {
	var out []*domain.Patient
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Order("last_name ASC, first_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
