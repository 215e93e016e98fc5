package logs

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Initialize creates a text logger writing to output at the given level.
// An empty level means info.
func Initialize(level string, output io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	if level == "" {
		level = logrus.InfoLevel.String()
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	logger.SetLevel(parsed)

	return logger, nil
}
