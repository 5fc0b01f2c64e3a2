// Package itemtest holds the behavior every item.Repository must satisfy.
package itemtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"itemservice/pkg/item"
)

// Run exercises repo against the repository contract. The store is cleared
// before each case.
func Run(t *testing.T, repo item.Repository) {
	cases := []struct {
		name string
		fn   func(*testing.T, context.Context, item.Repository)
	}{
		{"IDsIncrease", testIDsIncrease},
		{"FindAfterSave", testFindAfterSave},
		{"FindAllOrder", testFindAllOrder},
		{"FindAllSnapshot", testFindAllSnapshot},
		{"SaveIgnoresID", testSaveIgnoresID},
		{"OddValues", testOddValues},
		{"Update", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"FindMissing", testFindMissing},
		{"RepeatReads", testRepeatReads},
		{"ClearResets", testClearResets},
		{"ConcurrentSave", testConcurrentSave},
		{"ConcurrentUpdate", testConcurrentUpdate},
		{"LargeValues", testLargeValues},
		{"Scenario", testScenario},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			if err := repo.ClearStore(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			c.fn(t, ctx, repo)
		})
	}
}

func mustSave(t *testing.T, ctx context.Context, repo item.Repository, it item.Item) item.Item {
	t.Helper()
	saved, err := repo.Save(ctx, it)
	if err != nil {
		t.Fatalf("save %s: %v", it.ItemName, err)
	}
	return saved
}

func testIDsIncrease(t *testing.T, ctx context.Context, repo item.Repository) {
	var last int64
	for i := 0; i < 10; i++ {
		it := mustSave(t, ctx, repo, item.New("x", i, i))
		if it.ID <= last {
			t.Fatalf("id %d not greater than previous %d", it.ID, last)
		}
		last = it.ID
	}
}

func testFindAfterSave(t *testing.T, ctx context.Context, repo item.Repository) {
	saved := mustSave(t, ctx, repo, item.New("itemA", 10000, 10))
	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != saved {
		t.Fatalf("expected %+v, got %+v", saved, got)
	}
}

func testFindAllOrder(t *testing.T, ctx context.Context, repo item.Repository) {
	names := []string{"c", "a", "b", "d"}
	for _, n := range names {
		mustSave(t, ctx, repo, item.New(n, 1, 1))
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("expected %d items, got %d", len(names), len(all))
	}
	for i, n := range names {
		if all[i].ItemName != n {
			t.Fatalf("position %d: expected %s, got %s", i, n, all[i].ItemName)
		}
	}
}

func testFindAllSnapshot(t *testing.T, ctx context.Context, repo item.Repository) {
	mustSave(t, ctx, repo, item.New("a", 1, 1))
	before, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	mustSave(t, ctx, repo, item.New("b", 2, 2))
	if len(before) != 1 {
		t.Fatalf("earlier result changed to %d items", len(before))
	}
	before[0].ItemName = "mutated"
	got, err := repo.FindByID(ctx, before[0].ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ItemName != "a" {
		t.Fatalf("store changed through returned slice: %s", got.ItemName)
	}
}

func testSaveIgnoresID(t *testing.T, ctx context.Context, repo item.Repository) {
	first := mustSave(t, ctx, repo, item.New("a", 1, 1))
	it := item.New("b", 2, 2)
	it.ID = first.ID
	second := mustSave(t, ctx, repo, it)
	if second.ID == first.ID {
		t.Fatalf("save reused id %d", first.ID)
	}
	got, err := repo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ItemName != "a" {
		t.Fatalf("first item overwritten: %+v", got)
	}
}

func testOddValues(t *testing.T, ctx context.Context, repo item.Repository) {
	saved := mustSave(t, ctx, repo, item.New("", -5, 0))
	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Price != -5 || got.Quantity != 0 || got.ItemName != "" {
		t.Fatalf("unexpected item %+v", got)
	}
}

func testUpdate(t *testing.T, ctx context.Context, repo item.Repository) {
	saved := mustSave(t, ctx, repo, item.New("item1", 10000, 10))
	values := item.Item{ID: 999, ItemName: "item2", Price: 20000, Quantity: 30}
	if err := repo.Update(ctx, saved.ID, values); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := item.Item{ID: saved.ID, ItemName: "item2", Price: 20000, Quantity: 30}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func testUpdateMissing(t *testing.T, ctx context.Context, repo item.Repository) {
	mustSave(t, ctx, repo, item.New("a", 1, 1))
	err := repo.Update(ctx, 42, item.New("ghost", 1, 1))
	if !errors.Is(err, item.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, 42); !errors.Is(err, item.ErrNotFound) {
		t.Fatalf("update created item 42: %v", err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 item, got %d", len(all))
	}
}

func testFindMissing(t *testing.T, ctx context.Context, repo item.Repository) {
	if _, err := repo.FindByID(ctx, 1); !errors.Is(err, item.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("lookup created %d items", len(all))
	}
}

func testRepeatReads(t *testing.T, ctx context.Context, repo item.Repository) {
	saved := mustSave(t, ctx, repo, item.New("a", 1, 1))
	mustSave(t, ctx, repo, item.New("b", 2, 2))
	first, _ := repo.FindAll(ctx)
	second, _ := repo.FindAll(ctx)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("position %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	a, _ := repo.FindByID(ctx, saved.ID)
	b, _ := repo.FindByID(ctx, saved.ID)
	if a != b {
		t.Fatalf("lookups differ: %+v vs %+v", a, b)
	}
}

func testClearResets(t *testing.T, ctx context.Context, repo item.Repository) {
	mustSave(t, ctx, repo, item.New("a", 1, 1))
	mustSave(t, ctx, repo, item.New("b", 1, 1))
	if err := repo.ClearStore(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}
	it := mustSave(t, ctx, repo, item.New("c", 1, 1))
	if it.ID != 1 {
		t.Fatalf("expected id 1 after clear, got %d", it.ID)
	}
}

func testConcurrentSave(t *testing.T, ctx context.Context, repo item.Repository) {
	const workers, perWorker = 16, 25
	var wg sync.WaitGroup
	ids := make(chan int64, workers*perWorker)
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				it, err := repo.Save(ctx, item.New("c", i, i))
				if err != nil {
					errs <- err
					return
				}
				ids <- it.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)
	for err := range errs {
		t.Fatalf("save: %v", err)
	}

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != workers*perWorker || len(seen) != workers*perWorker {
		t.Fatalf("expected %d items, got %d stored and %d ids", workers*perWorker, len(all), len(seen))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("find all out of id order at %d", i)
		}
	}
}

func testConcurrentUpdate(t *testing.T, ctx context.Context, repo item.Repository) {
	saved := mustSave(t, ctx, repo, item.New("start", 0, 0))
	const workers, perWorker = 16, 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := repo.Update(ctx, saved.ID, item.New("w", w, i)); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	failed := 0
	var first error
	for err := range errs {
		if first == nil {
			first = err
		}
		failed++
	}
	if failed > 0 {
		t.Fatalf("%d of %d updates failed, first: %v", failed, workers*perWorker, first)
	}

	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != saved.ID || got.ItemName != "w" || got.Price < 0 || got.Price >= workers || got.Quantity < 0 || got.Quantity >= perWorker {
		t.Fatalf("unexpected item after updates %+v", got)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("updates changed item count to %d", len(all))
	}
}

func testLargeValues(t *testing.T, ctx context.Context, repo item.Repository) {
	const big = 3000000000
	saved := mustSave(t, ctx, repo, item.New("bulk", big, -big))
	got, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Price != big || got.Quantity != -big {
		t.Fatalf("unexpected item %+v", got)
	}
	if err := repo.Update(ctx, saved.ID, item.New("bulk", big+1, big)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.FindByID(ctx, saved.ID)
	if got.Price != big+1 || got.Quantity != big {
		t.Fatalf("unexpected item after update %+v", got)
	}
}

func testScenario(t *testing.T, ctx context.Context, repo item.Repository) {
	seeded, err := item.Seed(ctx, repo)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	want := []item.Item{
		{ID: 1, ItemName: "testA", Price: 1200, Quantity: 10},
		{ID: 2, ItemName: "testB", Price: 3200, Quantity: 21},
	}
	if len(all) != len(want) || len(seeded) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i] != want[i] || seeded[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], all[i])
		}
	}

	c := mustSave(t, ctx, repo, item.New("testC", 500, 5))
	if c.ID != 3 {
		t.Fatalf("expected id 3, got %d", c.ID)
	}
	got, err := repo.FindByID(ctx, 3)
	if err != nil {
		t.Fatalf("find 3: %v", err)
	}
	if got != (item.Item{ID: 3, ItemName: "testC", Price: 500, Quantity: 5}) {
		t.Fatalf("unexpected item 3: %+v", got)
	}

	if err := repo.Update(ctx, 1, item.New("testA-mod", 1300, 11)); err != nil {
		t.Fatalf("update 1: %v", err)
	}
	got, err = repo.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("find 1: %v", err)
	}
	if got != (item.Item{ID: 1, ItemName: "testA-mod", Price: 1300, Quantity: 11}) {
		t.Fatalf("unexpected item 1: %+v", got)
	}
}
