package logger

// BestEffort wraps l so that nothing the sink does can reach the caller:
// panics are recovered and discarded and Sync errors are swallowed.
// Diagnostic logging on request paths goes through this wrapper.
func BestEffort(l Logger) Logger {
	if l == nil {
		return NewNop()
	}
	if _, ok := l.(*bestEffort); ok {
		return l
	}
	return &bestEffort{next: l}
}

type bestEffort struct {
	next Logger
}

func (b *bestEffort) Debug(msg string, fields ...Field) {
	defer discard()
	b.next.Debug(msg, fields...)
}

func (b *bestEffort) Info(msg string, fields ...Field) {
	defer discard()
	b.next.Info(msg, fields...)
}

func (b *bestEffort) Warn(msg string, fields ...Field) {
	defer discard()
	b.next.Warn(msg, fields...)
}

func (b *bestEffort) Error(msg string, fields ...Field) {
	defer discard()
	b.next.Error(msg, fields...)
}

func (b *bestEffort) With(fields ...Field) (l Logger) {
	defer func() {
		if recover() != nil {
			l = b
		}
	}()
	return &bestEffort{next: b.next.With(fields...)}
}

func (b *bestEffort) Sync() error {
	defer discard()
	_ = b.next.Sync()
	return nil
}

func discard() { _ = recover() }
