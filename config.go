package sluice

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mlevan/sluice/retry"
)

type Option = func(*config)

// WithLogger sets the logger used for drain and shift failures. The default
// is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	if logger == nil {
		panic("logger can't be nil")
	}
	return func(c *config) {
		c.logger = logger
	}
}

// WithSpawner sets the capability used to run background flows. The default
// runs each flow on a detached goroutine.
func WithSpawner(spawner Spawner) Option {
	if spawner == nil {
		panic("spawner can't be nil")
	}
	return func(c *config) {
		c.spawner = spawner
	}
}

// WithPushRetry sets the retry policy applied when pushing an item into the
// buffer fails. The default makes a single attempt and abandons the item.
func WithPushRetry(policy retry.Policy) Option {
	if policy == nil {
		panic("policy can't be nil")
	}
	return func(c *config) {
		c.pushRetry = policy
	}
}

// WithPrometheus registers the stream's metrics with the given registerer. If
// registerer is nil, metrics are collected but not registered.
func WithPrometheus(registerer prometheus.Registerer, namespace, subsystem string) Option {
	return func(c *config) {
		c.metrics = newMetrics(registerer, namespace, subsystem)
	}
}

type config struct {
	logger    *zap.Logger
	spawner   Spawner
	pushRetry retry.Policy
	metrics   *metrics
}

func newConfig(options ...Option) *config {
	options = append([]Option{
		WithLogger(zap.NewNop()),
		WithSpawner(GoSpawner{}),
		WithPushRetry(retry.Immediate(1)),
		WithPrometheus(nil, "sluice", ""),
	}, options...)

	cfg := config{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}
