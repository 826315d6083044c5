// Package logging builds the zap logger shared by every scopecrawl command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scopecrawl/scopecrawl/internal/config"
)

// service tags every entry so crawl logs remain attributable when mixed
// into a shared aggregation sink.
const service = "scopecrawl"

// New builds the process logger: colored console output in development,
// JSON with error stacktraces otherwise.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.DisableStacktrace = false
	}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	logger, err := zcfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
