package testutil

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "fintrack/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertFloat fails the test if got is further than 0.01 from want.
func AssertFloat(t *testing.T, name string, want, got float64) {
	t.Helper()

	if math.Abs(want-got) > 0.01 {
		t.Errorf("expected %s %.2f, got %.2f", name, want, got)
	}
}

// AssertDate fails the test unless got falls on the same UTC calendar day as
// want.
func AssertDate(t *testing.T, name string, want, got time.Time) {
	t.Helper()

	wy, wm, wd := want.UTC().Date()
	gy, gm, gd := got.UTC().Date()
	if wy != gy || wm != gm || wd != gd {
		t.Errorf("expected %s %s, got %s", name, want.Format(time.DateOnly), got.Format(time.DateOnly))
	}
}
