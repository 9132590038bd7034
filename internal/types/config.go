package types

type RunMode string

const (
	// ModeLocal runs the API server with an in-process scheduler
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server; reconciliation is triggered externally
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
