package logging_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/palantir/card-catalog-pipeline/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{level: "debug", format: "console", want: zap.DebugLevel},
		{level: "info", format: "json", want: zap.InfoLevel},
		{level: "WARN", format: "", want: zap.WarnLevel},
	}
	for _, tt := range tests {
		logger, err := logging.New(tt.level, tt.format)
		require.NoError(t, err, "%s/%s", tt.level, tt.format)
		require.Equal(t, tt.want, logger.Level())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := logging.New("chatty", "json")
	require.Error(t, err)
	_, err = logging.New("info", "xml")
	require.Error(t, err)
}
