package logger

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedLevel is returned by Init for a log level zerolog does not know.
	ErrUnsupportedLevel = errors.New("log level is not supported")

	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// ErrorHandler reports events zerolog failed to write, e.g. to a full disk, on stderr.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "restcore logger: dropped log event: %v\n", err)
}
