package logs

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Initialize("debug", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("pass", "key_lookup").Debug("applied")
	assert.Contains(t, buf.String(), "pass=key_lookup")

	logger, err = Initialize("", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	_, err = Initialize("chatty", &buf)
	assert.Error(t, err)
}
