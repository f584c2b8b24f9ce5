package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

func newResultRepoWithMock(t *testing.T) (*ResultRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewResultRepository(db), mock, func() { _ = db.Close() }
}

func TestGetResultReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT status, record").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetResult(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetResultDecodesAcceptedRecord(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	payload, _ := json.Marshal(domain.SuccessRecord{DocumentID: "d1", Translation: "final", Grade: domain.GradeGreat})
	mock.ExpectQuery("SELECT status, record").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "record"}).AddRow("accepted", payload))

	result, err := repo.GetResult(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if result.Status != domain.ResultAccepted || result.Success == nil || result.Failure != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Success.Translation != "final" || result.Success.Grade != domain.GradeGreat {
		t.Fatalf("unexpected success record: %+v", result.Success)
	}
}

func TestGetResultDecodesFailedRecord(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	payload, _ := json.Marshal(domain.FailureRecord{DocumentID: "d4", ErrorSummary: "boom", Tier: domain.FailureIndividually, Attempts: 3})
	mock.ExpectQuery("SELECT status, record").
		WithArgs("d4").
		WillReturnRows(sqlmock.NewRows([]string{"status", "record"}).AddRow("failed", payload))

	result, err := repo.GetResult(context.Background(), "d4")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if result.Failure == nil || result.Failure.Attempts != 3 || result.Failure.Tier != domain.FailureIndividually {
		t.Fatalf("unexpected failure record: %+v", result.Failure)
	}
}

func TestAcceptUpsertsAcceptedRow(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO translation_results").
		WithArgs("d1", "accepted", "English", "great", true, 3, "", 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Accept(context.Background(), domain.SuccessRecord{
		DocumentID:     "d1",
		TargetLanguage: "English",
		Grade:          domain.GradeGreat,
		ForcedAccept:   true,
		Iterations:     3,
	})
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRejectUpsertsFailedRow(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO translation_results").
		WithArgs("d4", "failed", "", "", false, 0, "individual", 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.Reject(context.Background(), domain.FailureRecord{DocumentID: "d4", Tier: domain.FailureIndividually, Attempts: 3})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS translation_results").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
