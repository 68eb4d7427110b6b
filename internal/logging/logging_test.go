package logging_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/logging"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", false)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("op", "delete").Error("error deleting task")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="error deleting task"`)
	assert.Contains(t, out, "op=delete")
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	logger, err := logging.New(&bytes.Buffer{}, "error", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud", false)
	require.Error(t, err)
}
