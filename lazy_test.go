package goFlags

import (
	"errors"
	"sync"
	"testing"
)

func TestLazyBuildsOnceUnderConcurrency(t *testing.T) {
	l := Define(Primitives("None", "A", "B")...)

	var wg sync.WaitGroup
	results := make([]*Registry, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.MustRegistry()
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r != results[0] {
			t.Fatal("expected one registry instance")
		}
	}
}

func TestLazyKeepsBuildError(t *testing.T) {
	l := Define(Primitive("None"), Alias("Bad", "Missing"))
	_, err1 := l.Registry()
	_, err2 := l.Registry()
	if !errors.Is(err1, ErrAliasUndeclared) || err1 != err2 {
		t.Fatalf("expected the same build error twice, got %v / %v", err1, err2)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustRegistry must panic on build error")
		}
	}()
	l.MustRegistry()
}

func TestDefineCopiesDeclarations(t *testing.T) {
	decls := Primitives("None", "A")
	l := Define(decls...)
	decls[1].Name = "Changed"

	if _, ok := l.MustRegistry().Lookup("A"); !ok {
		t.Fatal("Define must copy its declarations")
	}
}

func TestDefineWithConfigEnablesMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	r := DefineWithConfig(cfg, Primitives("None", "A")...).MustRegistry()

	_, _ = r.TryParse("A")
	if got := r.Metrics().Value(MetricParseSuccess); got != 1 {
		t.Fatalf("expected 1 parse, got %d", got)
	}
}
