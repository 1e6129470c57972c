package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/testutil"
)

// testNow is the fixed clock used by the services tests: 20 days into May,
// with 11 days of the month left.
var testNow = time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestRepo(db *gorm.DB) *repository.GormRepository {
	return repository.New(db, repository.WithClock(fixedClock))
}

// alertsOfType loads every alert of one type.
func alertsOfType(t *testing.T, repo repository.Repository, alertType models.AlertType) []models.BudgetAlert {
	t.Helper()

	all, err := repo.FindBudgetAlerts(context.Background(), nil)
	testutil.AssertNoError(t, err)

	var out []models.BudgetAlert
	for _, a := range all {
		if a.AlertType == alertType {
			out = append(out, a)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// observeErrors captures error logs for the rest of the test.
func observeErrors(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.ErrorLevel)
	t.Cleanup(logger.Set(zap.New(core).Sugar()))
	return logs
}

// loggedMessage reports whether an entry with msg was captured.
func loggedMessage(logs *observer.ObservedLogs, msg string) bool {
	return logs.FilterMessage(msg).Len() > 0
}
