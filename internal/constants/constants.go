package constants

import "time"

const (
	// QueryChunkSize is the hard ceiling on keys per batched IN query,
	// dictated by SQLite's bound-parameter limit.
	QueryChunkSize = 999
)

const (
	SessionTTL     = 2 * time.Hour
	SessionSweep   = 10 * time.Minute
	TableFetchTTL  = 24 * time.Hour
	RequestTimeout = 30 * time.Second
	FetchTimeout   = 15 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// UploadMaxBytes caps a single snapshot upload.
	UploadMaxBytes = 256 << 20
)
