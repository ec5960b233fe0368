package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"Flock/internal/core/apperr"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err         error
		name        string
		unavailable bool
	}{
		{name: "nil", err: nil},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), unavailable: true},
		{name: "bad conn", err: driver.ErrBadConn, unavailable: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, unavailable: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, unavailable: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}},
		{name: "plain", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.unavailable, errors.Is(got, apperr.ErrUpstreamUnavailable))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})
	assert.True(t, isUniqueViolation(err, "users_email_key"))
	assert.False(t, isUniqueViolation(err, "users_username_key"))
	assert.False(t, isUniqueViolation(errors.New("duplicate key"), "users_email_key"))
}
