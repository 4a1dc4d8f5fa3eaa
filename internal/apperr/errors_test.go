package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DjordjeVuckovic/modelcfg/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("model is required")

	if err.Error() != "model is required" {
		t.Errorf("expected 'model is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("yaml: line 3: mapping values are not allowed")
	err := apperr.NewValidationWrap("invalid descriptor", inner)

	if err.Error() != "invalid descriptor: yaml: line 3: mapping values are not allowed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("empty request body")

	wrapped := fmt.Errorf("check descriptor: %w", original)
	doubleWrapped := fmt.Errorf("handler: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "empty request body" {
		t.Errorf("expected 'empty request body', got %q", ve.Message)
	}
	if !apperr.IsValidation(doubleWrapped) {
		t.Error("IsValidation should report true for wrapped validation errors")
	}
}

func TestValidationError_NotFoundForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("database connection failed")
	wrapped := fmt.Errorf("storage error: %w", plain)

	if apperr.IsValidation(wrapped) {
		t.Fatal("IsValidation should be false for plain error chains")
	}
}

func TestErrNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("check result %q: %w", "abc", apperr.ErrNotFound)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("errors.Is should find ErrNotFound")
	}
}
