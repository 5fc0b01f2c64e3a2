package item

import (
	"context"
	"fmt"
)

// Fixtures are the demo items inserted by Seed.
var Fixtures = []Item{
	New("testA", 1200, 10),
	New("testB", 3200, 21),
}

// Seed saves the demo fixtures in order and returns the stored copies.
func Seed(ctx context.Context, repo Repository) ([]Item, error) {
	out := make([]Item, 0, len(Fixtures))
	for _, f := range Fixtures {
		it, err := repo.Save(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", f.ItemName, err)
		}
		out = append(out, it)
	}
	return out, nil
}
