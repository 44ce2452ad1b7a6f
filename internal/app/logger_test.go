package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { logger.Set(nil) })

	require.NoError(t, ConfigureLogging("debug"))
	require.True(t, logger.Logger().Core().Enabled(-1))

	require.NoError(t, ConfigureLogging(""))
	require.False(t, logger.Logger().Core().Enabled(-1))
}
