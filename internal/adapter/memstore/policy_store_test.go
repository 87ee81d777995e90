package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/sentinelgate/rbacguard/internal/rbacguard"
)

func TestStore_LoadPolicy_Empty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	rows, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("LoadPolicy() on empty store returned %d rows, want 0", len(rows))
	}
}

func TestStore_AddPolicyThenLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	store.AddPolicy("p", "p", []string{"alice", "/data/1", "read"})
	store.AddPolicy("p", "p", []string{"bob", "/data/2", "write"})
	store.AddPolicy("g", "g", []string{"alice", "admin"})

	rows, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("LoadPolicy() returned %d rows, want 3", len(rows))
	}

	var pCount, gCount int
	for _, r := range rows {
		switch r.PType {
		case "p":
			pCount++
		case "g":
			gCount++
		}
	}
	if pCount != 2 || gCount != 1 {
		t.Errorf("got %d p-rows and %d g-rows, want 2 and 1", pCount, gCount)
	}
}

func TestStore_RemovePolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	store.AddPolicy("p", "p", []string{"alice", "/data/1", "read"})

	if !store.RemovePolicy("p", "p", []string{"alice", "/data/1", "read"}) {
		t.Fatal("RemovePolicy() reported no row removed")
	}

	rows, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("LoadPolicy() after remove returned %d rows, want 0", len(rows))
	}
}

func TestStore_RemovePolicy_NoMatch(t *testing.T) {
	t.Parallel()

	store := New()
	store.AddPolicy("p", "p", []string{"alice", "/data/1", "read"})

	if store.RemovePolicy("p", "p", []string{"bob", "/data/1", "read"}) {
		t.Error("RemovePolicy() reported a row removed for a non-matching rule")
	}
}

func TestStore_SavePolicyReplacesContents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	store.AddPolicy("p", "p", []string{"alice", "/data/1", "read"})

	err := store.SavePolicy(ctx, []rbacguard.PolicyRow{
		{Section: "p", PType: "p", Values: []string{"carol", "/data/3", "delete"}},
	})
	if err != nil {
		t.Fatalf("SavePolicy() error: %v", err)
	}

	rows, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}
	if len(rows) != 1 || rows[0].Values[0] != "carol" {
		t.Fatalf("LoadPolicy() after SavePolicy = %+v, want single carol row", rows)
	}
}

func TestStore_LoadPolicyReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	store.AddPolicy("p", "p", []string{"alice", "/data/1", "read"})

	rows, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}
	rows[0].Values[0] = "mutated"

	rows2, err := store.LoadPolicy(ctx)
	if err != nil {
		t.Fatalf("LoadPolicy() second call error: %v", err)
	}
	if rows2[0].Values[0] != "alice" {
		t.Error("Store returned a reference instead of a copy; mutation leaked")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	for i := 0; i < 10; i++ {
		store.AddPolicy("p", "p", []string{"user", "/data", "read"})
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 200)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.LoadPolicy(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			store.AddPolicy("p", "p", []string{"user", "/data", "write"})
		}(i)
	}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.RemovePolicy("p", "p", []string{"user", "/data", "read"})
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent access error: %v", err)
	}
}
