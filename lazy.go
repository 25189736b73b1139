package goFlags

import "sync"

// Lazy builds a Registry on first use. Concurrent first uses build it exactly
// once; later calls return the same Registry or the same build error.
type Lazy struct {
	once    sync.Once
	cfg     Config
	declare func() []Declaration

	reg *Registry
	err error
}

// Define returns a Lazy registry for decls using [DefaultConfig].
//
//	var Perms = goFlags.Define(
//		goFlags.Primitive("None"),
//		goFlags.Primitive("Read"),
//		goFlags.Primitive("Write"),
//		goFlags.Alias("ReadWrite", "Read", "Write"),
//	)
func Define(decls ...Declaration) *Lazy {
	return DefineWithConfig(defaultConfig(), decls...)
}

// DefineWithConfig is like [Define] with an explicit configuration.
func DefineWithConfig(cfg Config, decls ...Declaration) *Lazy {
	cp := make([]Declaration, len(decls))
	for i, d := range decls {
		cp[i] = d.clone()
	}
	return &Lazy{
		cfg:     cfg,
		declare: func() []Declaration { return cp },
	}
}

func defineFunc(declare func() []Declaration) *Lazy {
	return &Lazy{cfg: defaultConfig(), declare: declare}
}

// Registry builds the registry if needed and returns it.
func (l *Lazy) Registry() (*Registry, error) {
	l.once.Do(func() {
		l.reg, l.err = New().WithConfig(l.cfg).Declare(l.declare()...).Build()
	})
	return l.reg, l.err
}

// MustRegistry is like [Lazy.Registry] but panics on a build error.
func (l *Lazy) MustRegistry() *Registry {
	r, err := l.Registry()
	if err != nil {
		panic(err)
	}
	return r
}
