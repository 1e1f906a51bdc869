package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a shared test database: postgres when TEST_POSTGRES_DSN is
// set, otherwise an in-memory sqlite database. Row-locking paths only
// take effect on postgres.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}

		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn != "" {
			db, dbErr = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			db, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
		}
		if dbErr != nil {
			return
		}
		dbErr = autoMigrateAll(db)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func SeedPatient(tb testing.TB, tx *gorm.DB) *domain.Patient {
	tb.Helper()
	p := &domain.Patient{FirstName: "Ada", LastName: "Quinn", MRN: "MRN-1001"}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed patient: %v", err)
	}
	return p
}

func SeedNote(tb testing.TB, tx *gorm.DB, patientID int64) *domain.Note {
	tb.Helper()
	n := &domain.Note{PatientID: patientID, Status: domain.StatusPending, Forms: []byte("{}")}
	if err := tx.Create(n).Error; err != nil {
		tb.Fatalf("seed note: %v", err)
	}
	return n
}

func SeedAudio(tb testing.TB, tx *gorm.DB, noteID int64) *domain.Audio {
	tb.Helper()
	a := &domain.Audio{NoteID: noteID, Path: "/tmp/seed.mp3", MimeType: "audio/mpeg"}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed audio: %v", err)
	}
	return a
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Patient{},
		&domain.Note{},
		&domain.Audio{},
		&domain.JobRun{},
	)
}
