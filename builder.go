package goFlags

// Builder collects flag declarations and builds a [Registry].
//
// A Builder is used once, during initialization. Declaration order is
// significant: it fixes bit positions and the printing order.
type Builder struct {
	config Config
	decls  []Declaration

	built bool
}

// New returns a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithMaxFlags caps the number of bit positions. Zero means unbounded.
func (b *Builder) WithMaxFlags(n int) *Builder {
	b.config.Registry.MaxFlags = n
	return b
}

// WithMetricsEnabled turns the registry counters on or off.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms turns the parse latency histogram on or off. It
// requires metrics to be enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Primitive appends primitive declarations. The first primitive declared on
// a builder is the sentinel.
func (b *Builder) Primitive(names ...string) *Builder {
	b.decls = append(b.decls, Primitives(names...)...)
	return b
}

// Alias appends an alias declaration combining earlier flags.
func (b *Builder) Alias(name string, of ...string) *Builder {
	b.decls = append(b.decls, Alias(name, of...))
	return b
}

// Declare appends arbitrary declarations, for example ones loaded by the decl
// package.
func (b *Builder) Declare(decls ...Declaration) *Builder {
	for _, d := range decls {
		b.decls = append(b.decls, d.clone())
	}
	return b
}

// Build validates the configuration and declarations and returns the
// immutable Registry. Any error aborts the build; no partial registry is
// returned.
func (b *Builder) Build() (*Registry, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	r, err := build(cfg, b.decls, NewMetrics(cfg.Metrics))
	if err != nil {
		return nil, err
	}

	b.built = true

	return r, nil
}
