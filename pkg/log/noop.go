package log

// Nop discards all log messages. Useful for tests and embedders that bring
// their own logging.
type Nop struct{}

// NewNop creates a no-op logger.
func NewNop() Nop {
	return Nop{}
}

// Debug discards the message.
func (Nop) Debug(string, ...Field) {}

// Info discards the message.
func (Nop) Info(string, ...Field) {}

// Warn discards the message.
func (Nop) Warn(string, ...Field) {}

// Error discards the message.
func (Nop) Error(string, ...Field) {}
