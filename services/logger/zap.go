package logsvc

import (
	"go.uber.org/zap"

	"github.com/trezcool/darasa/core"
)

// ZapLogger is the local/debug implementation of core.Logger.
// Used in DEV where sending everything to Rollbar would be noise.
type ZapLogger struct {
	sugar   *zap.SugaredLogger
	enabled bool
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: zl.Sugar(), enabled: true}, nil
}

func (l *ZapLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Debugw(msg, "args", args)
	}
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Infow(msg, "args", args)
	}
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Warnw(msg, "args", args)
	}
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Errorw(msg, "args", args)
	}
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, "args", args)
}
