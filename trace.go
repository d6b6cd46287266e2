package cascade

import "github.com/rs/zerolog"

// StageOption configures a root stage at construction time (spec.md §4.I).
type StageOption func(*stageConfig)

type stageConfig struct {
	tracer zerolog.Logger
}

func newStageConfig(opts []StageOption) stageConfig {
	cfg := stageConfig{tracer: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTracer attaches a zerolog.Logger to a root stage. Every stage
// derived from it by a combinator inherits the same tracer, so a single
// WithTracer at the root of a chain reports every stage of the chain that
// succeeds or fails; cancellation and the start of a computation are not
// reported. Stages are silent (zerolog.Nop()) unless this option is
// supplied.
func WithTracer(logger zerolog.Logger) StageOption {
	return func(cfg *stageConfig) {
		cfg.tracer = logger
	}
}
