package ports

import "github.com/holdfast-io/holdfast/pkg/log"

// Logger is the structured logging port used by the supervisor core.
// It is an alias of the public pkg/log interface so adapters written
// against either name are interchangeable.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Re-exported field constructors for convenience inside the core.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
