package aresmysql

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRegistry_SingleCreation(t *testing.T) {
	registry := NewPoolRegistry()

	var created atomic.Int32
	factory := func() (*Pool, error) {
		created.Add(1)
		return &Pool{}, nil
	}

	const callers = 32
	pools := make([]*Pool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pool, err := registry.GetOrCreate("shop", factory)
			if err != nil {
				t.Error(err)
				return
			}
			pools[i] = pool
		}(i)
	}
	wg.Wait()

	if got := created.Load(); got != 1 {
		t.Fatalf("expected factory to run once, ran %d times", got)
	}
	for i := 1; i < callers; i++ {
		if pools[i] != pools[0] {
			t.Fatal("concurrent callers received different pool instances")
		}
	}
}

func TestPoolRegistry_FactoryError(t *testing.T) {
	registry := NewPoolRegistry()
	boom := errors.New("unreachable")

	_, err := registry.GetOrCreate("shop", func() (*Pool, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}

	// A failed creation must not poison the slot.
	pool, err := registry.GetOrCreate("shop", func() (*Pool, error) { return &Pool{}, nil })
	if err != nil || pool == nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestPoolRegistry_Names(t *testing.T) {
	registry := NewPoolRegistry()
	for _, name := range []string{"b", "a", "c"} {
		if _, err := registry.GetOrCreate(name, func() (*Pool, error) { return &Pool{}, nil }); err != nil {
			t.Fatal(err)
		}
	}

	names := registry.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestSessionRegistry_LookupMissing(t *testing.T) {
	sessions := NewSessionRegistry(NewPoolRegistry(), nil)

	_, err := sessions.Lookup("ghost")
	if !IsRegistryInconsistency(err) {
		t.Fatalf("expected registry inconsistency, got %v", err)
	}
}

func TestSessionRegistry_UnknownSettings(t *testing.T) {
	sessions := NewSessionRegistry(NewPoolRegistry(), nil)

	_, err := sessions.Session(context.Background(), "s1", "missing")
	if !IsConnectionAcquisition(err) {
		t.Fatalf("expected connection acquisition error, got %v", err)
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Fatal("expected distinct session ids")
	}
}
