// Package timing wraps pipeline stages and reports how long they took to
// an injected Observer.
package timing

import (
	"time"

	"go.uber.org/zap"
)

// Observer receives one observation per finished stage.
type Observer interface {
	Observe(stage string, elapsed time.Duration, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stage string, elapsed time.Duration, err error)

// Observe implements Observer.
func (f ObserverFunc) Observe(stage string, elapsed time.Duration, err error) {
	f(stage, elapsed, err)
}

type nop struct{}

func (nop) Observe(string, time.Duration, error) {}

// Nop discards observations.
var Nop Observer = nop{}

// Track runs fn and reports its duration and error under stage.
func Track(obs Observer, stage string, fn func() error) error {
	if obs == nil {
		obs = Nop
	}
	start := time.Now()
	err := fn()
	obs.Observe(stage, time.Since(start), err)
	return err
}

// Value is Track for functions that return a result.
func Value[T any](obs Observer, stage string, fn func() (T, error)) (T, error) {
	var out T
	err := Track(obs, stage, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

type multi []Observer

func (m multi) Observe(stage string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.Observe(stage, elapsed, err)
	}
}

// Multi fans observations out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// Log reports each stage as a structured log line.
func Log(logger *zap.Logger) Observer {
	if logger == nil {
		return Nop
	}
	return ObserverFunc(func(stage string, elapsed time.Duration, err error) {
		if err != nil {
			logger.Warn("stage failed", zap.String("stage", stage), zap.Duration("elapsed", elapsed), zap.Error(err))
			return
		}
		logger.Info("stage finished", zap.String("stage", stage), zap.Duration("elapsed", elapsed))
	})
}
