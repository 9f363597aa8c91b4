package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("approve deposit: %w", InsufficientBalance(base))

	assert.True(t, Is(err, KindInsufficientBalance))
	assert.False(t, Is(err, KindNotFound))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindInsufficientBalance, KindOf(err))
}

func TestForeignErrorsAreStorage(t *testing.T) {
	assert.Equal(t, KindStorage, KindOf(errors.New("connection refused")))
	assert.Equal(t, http.StatusInternalServerError, KindOf(errors.New("x")).HTTPStatus())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:          http.StatusBadRequest,
		KindInsufficientBalance: http.StatusBadRequest,
		KindNotFound:            http.StatusNotFound,
		KindAuth:                http.StatusUnauthorized,
		KindConflict:            http.StatusConflict,
		KindStorage:             http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "amount must be positive", Validation("amount must be positive").Error())
	assert.Equal(t, "user 00002 not found", NotFound("user %s not found", "00002").Error())
	assert.Equal(t, "insert user: dup", Storage("insert user", errors.New("dup")).Error())
}
