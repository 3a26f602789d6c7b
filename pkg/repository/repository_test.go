package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/floracare/pkg/repository"
)

var (
	errPlantNotFound = errors.New("plant not found")
	errPlantExists   = errors.New("plant already exists")
)

func TestMapError(t *testing.T) {
	timeout := errors.New("connection reset")
	checkViolation := &pgconn.PgError{Code: "23514"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errPlantNotFound},
		{"wrapped no rows", fmt.Errorf("find plant: %w", sql.ErrNoRows), errPlantNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errPlantExists},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errPlantNotFound},
		{"other pg error", checkViolation, checkViolation},
		{"other error", timeout, timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errPlantNotFound, errPlantExists)
			if got != tt.want {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}
