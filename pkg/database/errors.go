package database

import "errors"

var (
	// ErrNotReady indicates the server could not be reached.
	ErrNotReady = errors.New("database not ready")
	// ErrVectorMissing indicates the pgvector extension is not installed.
	ErrVectorMissing = errors.New("pgvector extension not installed")
)
