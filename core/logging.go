package core

// Logger is any leveled logger that can report to an external error tracker.
// Trailing args may carry an error, a context map or a principal for attribution.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
