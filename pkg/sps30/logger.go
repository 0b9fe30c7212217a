package sps30

import "github.com/golang/glog"

// Logger receives warnings from decoding.
type Logger interface {
	Warningf(format string, args ...interface{})
}

// GlogLogger logs warnings with glog.
type GlogLogger struct{}

// Warningf implements Logger.
func (GlogLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}
