package zcached

import "github.com/sirupsen/logrus"

// Logger is the structured logging surface the server and client use for
// connection lifecycle events. It is intentionally tiny so callers can plug
// in whatever logging library their process already uses; NewLogrusLogger
// adapts github.com/sirupsen/logrus, the logger this corpus's services use.
type Logger interface {
	WithField(key string, value interface{}) Logger
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) WithField(string, interface{}) Logger      { return noopLogger{} }
func (noopLogger) Debugf(string, ...interface{})              {}
func (noopLogger) Infof(string, ...interface{})               {}
func (noopLogger) Errorf(string, ...interface{})              {}

// logrusLogger adapts *logrus.Entry to Logger.
type logrusLogger struct{ entry *logrus.Entry }

// NewLogrusLogger wraps l as a Logger. A nil l falls back to
// logrus.StandardLogger().
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{entry: logrus.NewEntry(l)}
}

func (l logrusLogger) WithField(key string, value interface{}) Logger {
	return logrusLogger{entry: l.entry.WithField(key, value)}
}
func (l logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
