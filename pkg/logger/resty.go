package logger

import "fmt"

// RestyLogger satisfies resty's Logger interface.
type RestyLogger struct {
	log Logger
}

// NewRestyLogger wraps l for use with resty.Client.SetLogger.
func NewRestyLogger(l Logger) *RestyLogger {
	return &RestyLogger{log: l.WithField("component", "http")}
}

func (r *RestyLogger) Errorf(format string, v ...interface{}) {
	r.log.Error(fmt.Sprintf(format, v...))
}

func (r *RestyLogger) Warnf(format string, v ...interface{}) {
	r.log.Warn(fmt.Sprintf(format, v...))
}

func (r *RestyLogger) Debugf(format string, v ...interface{}) {
	r.log.Debug(fmt.Sprintf(format, v...))
}
