package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// TestLogger returns a silent logger and a hook that records every entry.
func TestLogger(t *testing.T) (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		hook.Reset()
		logger.SetOutput(io.Discard)
	})
	return logger, hook
}
