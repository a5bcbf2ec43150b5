package log

import (
	"fmt"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	z zerolog.Logger
}

type zerologProvider struct {
	level zerolog.Level
}

// NewZerologProvider returns a provider whose loggers share the global output
// and are filtered at level.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return &zerologProvider{level: level}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{z: GetLogger().Level(p.level)}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{z: GetLogger().Level(p.level).With().Str(ComponentKey, name).Logger()}
}

func (l *zerologLogger) Debug(msg string, keyvals ...interface{}) {
	l.write(l.z.Debug(), msg, keyvals)
}

func (l *zerologLogger) Info(msg string, keyvals ...interface{}) {
	l.write(l.z.Info(), msg, keyvals)
}

func (l *zerologLogger) Warn(msg string, keyvals ...interface{}) {
	l.write(l.z.Warn(), msg, keyvals)
}

func (l *zerologLogger) Error(msg string, keyvals ...interface{}) {
	l.write(l.z.Error(), msg, keyvals)
}

func (l *zerologLogger) With(keyvals ...interface{}) Logger {
	ctx := l.z.With()
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		if err, ok := val.(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, val)
	}
	return &zerologLogger{z: ctx.Logger()}
}

func (l *zerologLogger) write(e *zerolog.Event, msg string, keyvals []interface{}) {
	if e == nil {
		return
	}
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		if err, ok := val.(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, val)
	}
	e.Msg(msg)
}

// pair returns the key/value at i; an odd trailing key gets a nil value.
func pair(keyvals []interface{}, i int) (string, interface{}) {
	key, ok := keyvals[i].(string)
	if !ok {
		key = fmt.Sprint(keyvals[i])
	}
	if i+1 >= len(keyvals) {
		return key, nil
	}
	return key, keyvals[i+1]
}

// detailed renders err with "%+v", which includes the stack trace for
// errors created through pkg/errors.
func detailed(err error) string {
	return fmt.Sprintf("%+v", err)
}
