package internal

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogging builds the global logger. The CLI logs to stderr in development format;
// the MCP server logs JSON to the log file so stdio stays clean for the protocol.
func InitLogging(config *Config, mcpMode bool) (*zap.Logger, error) {
	var zc zap.Config
	if mcpMode {
		if err := EnsureDirs(filepath.Dir(config.LogFile)); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		zc = zap.NewProductionConfig()
		zc.OutputPaths = []string{config.LogFile}
		zc.ErrorOutputPaths = []string{config.LogFile}
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}

	switch {
	case config.Verbose:
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case config.Quiet:
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	case mcpMode:
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
