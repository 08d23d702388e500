package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorMapsKnownErrors(t *testing.T) {
	forbidden := NewForbidden("nope")
	assert.Same(t, forbidden, ToDomainError(fmt.Errorf("wrapped: %w", forbidden)))

	notFound := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	fromFiber := ToDomainError(fiber.NewError(http.StatusBadRequest, "invalid payload"))
	assert.Equal(t, http.StatusBadRequest, fromFiber.HTTPStatus)
	assert.Equal(t, "VALIDATION_FAILED", fromFiber.Code)
	assert.Equal(t, "invalid payload", fromFiber.Message)
}

func TestToDomainErrorHidesInternalDetail(t *testing.T) {
	de := ToDomainError(errors.New("pq: relation \"leads\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(NewNotFound("lead", nil)))
	assert.False(t, IsNotFound(NewForbidden("x")))
	assert.False(t, IsNotFound(nil))
}

func TestDeadlineBecomesTimeout(t *testing.T) {
	de := ToDomainError(fmt.Errorf("query leads: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, de.HTTPStatus)
	assert.Equal(t, CodeTimeout, de.Code)
	assert.NotContains(t, de.Message, "query leads")
}

func TestCodeForFiberStatuses(t *testing.T) {
	cases := map[int]string{
		http.StatusRequestEntityTooLarge: CodeValidation,
		http.StatusMethodNotAllowed:      CodeNotFound,
		http.StatusTooManyRequests:       CodeRateLimited,
		http.StatusBadGateway:            CodeInternal,
		http.StatusTeapot:                "REQUEST_FAILED",
	}
	for status, code := range cases {
		assert.Equal(t, code, ToDomainError(fiber.NewError(status)).Code, status)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("assign: %w", NewForbidden("not your team member"))
	assert.True(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeForbidden))
}
