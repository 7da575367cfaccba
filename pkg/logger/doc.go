// Package logger provides structured logging for faceharvest.
//
// It wraps zerolog behind the Logger interface so components can take a
// logger by injection and tests can substitute a TestLogger that records
// every message.
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("query", q).Info("Harvest started")
//	logger.WithError(err).Warn("Download skipped")
package logger
