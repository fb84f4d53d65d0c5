// Package utils provides utility functions for the routing service
package utils

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llm-router/router/pkg/types"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new logger instance with specified configuration
func NewLogger(config *types.LoggingConfig) *Logger {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set log format
	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	// Set output
	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	} else if config.Output != "" && config.Output != "stdout" {
		// File output
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.WithError(err).Error("Failed to open log file, falling back to stdout")
			output = os.Stdout
		} else {
			output = file
		}
	}
	logger.SetOutput(output)

	return &Logger{Logger: logger}
}

// NewNopLogger returns a logger that discards all output. Used by tests.
func NewNopLogger() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger}
}

// WithRequestID adds request ID to log context
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}

// WithProvider adds provider information to log context
func (l *Logger) WithProvider(provider types.ProviderID) *logrus.Entry {
	return l.WithField("provider", provider.String())
}

// WithIntent adds classification results to log context
func (l *Logger) WithIntent(intent types.Intent) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"intent":     string(intent.Type),
		"confidence": intent.Confidence,
	})
}

// WithDuration adds duration to log context
func (l *Logger) WithDuration(duration time.Duration) *logrus.Entry {
	return l.WithField("duration_ms", duration.Milliseconds())
}

// WithError adds error information with additional context
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// LogProviderCall logs an upstream provider call
func (l *Logger) LogProviderCall(provider types.ProviderID, requestID string, startTime time.Time) {
	l.WithFields(logrus.Fields{
		"type":       "provider_call",
		"request_id": requestID,
		"provider":   provider.String(),
		"timestamp":  startTime.Format(time.RFC3339),
	}).Info("Provider call started")
}

// LogProviderResult logs the outcome of an upstream provider call
func (l *Logger) LogProviderResult(provider types.ProviderID, requestID string, duration time.Duration, err error) {
	entry := l.WithFields(logrus.Fields{
		"type":        "provider_result",
		"request_id":  requestID,
		"provider":    provider.String(),
		"duration_ms": duration.Milliseconds(),
	})

	if err != nil {
		entry.WithError(err).Warn("Provider call failed")
	} else {
		entry.Info("Provider call completed")
	}
}

// LogBreakerTransition logs a circuit breaker state change
func (l *Logger) LogBreakerTransition(provider types.ProviderID, from, to string) {
	l.WithFields(logrus.Fields{
		"type":     "breaker_transition",
		"provider": provider.String(),
		"from":     from,
		"to":       to,
	}).Warn("Circuit breaker state changed")
}

// MaskAPIKey masks an API key for logging (shows only first 8 characters)
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
