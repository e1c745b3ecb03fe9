package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger. Development mode switches to the
// human-readable console encoder.
func New(development bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// NewFromEnv reads APP_ENV; anything other than "production" gets the
// development encoder.
func NewFromEnv() (*zap.SugaredLogger, error) {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	return New(env != "production")
}
