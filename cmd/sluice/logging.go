package main

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sluice"
	sluiceredis "github.com/zoobzio/sluice/pkg/redis"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a production logger, or a development one with debug.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

var logged = []struct {
	signal capitan.Signal
	msg    string
	level  zapcore.Level
}{
	{sluice.AdapterStarted, "adapter started", zapcore.DebugLevel},
	{sluice.AdapterStateChanged, "adapter state changed", zapcore.InfoLevel},
	{sluice.ValidationFailed, "config rejected", zapcore.ErrorLevel},
	{sluice.BaselinePrimed, "watch baseline primed", zapcore.DebugLevel},
	{sluice.LoadSucceeded, "load succeeded", zapcore.DebugLevel},
	{sluice.LoadFailed, "load failed", zapcore.ErrorLevel},
	{sluice.ChainFailed, "post-processing failed", zapcore.ErrorLevel},
	{sluice.WatchStarted, "watch started", zapcore.InfoLevel},
	{sluice.WatchStopped, "watch stopped", zapcore.InfoLevel},
	{sluice.WatchPollFailed, "watch poll failed", zapcore.WarnLevel},
	{sluice.ChangeDetected, "change detected", zapcore.InfoLevel},
	{sluice.SessionCloseFailed, "connection close failed", zapcore.WarnLevel},
	{sluiceredis.PublishFailed, "change broadcast failed", zapcore.WarnLevel},
}

// hookSignals logs sluice signals through log.
func hookSignals(log *zap.Logger) {
	for _, l := range logged {
		l := l
		capitan.Hook(l.signal, func(_ context.Context, e *capitan.Event) {
			if ce := log.Check(l.level, l.msg); ce != nil {
				ce.Write(eventFields(e)...)
			}
		})
	}
	capitan.Hook(sluice.AdapterCompleted, func(_ context.Context, e *capitan.Event) {
		if _, failed := sluice.KeyError.From(e); failed {
			log.Error("adapter completed with error", eventFields(e)...)
			return
		}
		log.Info("adapter completed", eventFields(e)...)
	})
}

// eventFields converts the sluice keys present on e to zap fields.
func eventFields(e *capitan.Event) []zap.Field {
	var fields []zap.Field
	str := func(name string, v string, ok bool) {
		if ok {
			fields = append(fields, zap.String(name, v))
		}
	}

	v, ok := sluice.KeyStage.From(e)
	str("stage", v, ok)
	v, ok = sluice.KeyQuery.From(e)
	str("query", v, ok)
	v, ok = sluice.KeyState.From(e)
	str("state", v, ok)
	v, ok = sluice.KeyOldState.From(e)
	str("old_state", v, ok)
	v, ok = sluice.KeyNewState.From(e)
	str("new_state", v, ok)
	v, ok = sluice.KeyError.From(e)
	str("error", v, ok)
	v, ok = sluiceredis.KeyChannel.From(e)
	str("channel", v, ok)

	if d, ok := sluice.KeyInterval.From(e); ok {
		fields = append(fields, zap.Duration("interval", d))
	}
	if d, ok := sluice.KeyDuration.From(e); ok {
		fields = append(fields, zap.Duration("duration", d))
	}
	if n, ok := sluice.KeyRows.From(e); ok {
		fields = append(fields, zap.Int("rows", n))
	}
	return fields
}
