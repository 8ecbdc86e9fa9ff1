package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"circulation/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, sentinel.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, sentinel.ErrAlreadyUsed},
		{"check", &pgconn.PgError{Code: "23514"}, sentinel.ErrInvalidState},
		{"serialization", &pgconn.PgError{Code: "40001"}, sentinel.ErrContention},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, sentinel.ErrContention},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, sentinel.ErrContention},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassifyPassesThroughUnknown(t *testing.T) {
	assert.NoError(t, Classify(nil))

	other := errors.New("network down")
	assert.Same(t, other, Classify(other))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Same(t, syntax, Classify(syntax))
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schema, "loans_one_active_per_member_item")
	assert.Contains(t, schema, "available_within_total")
}
