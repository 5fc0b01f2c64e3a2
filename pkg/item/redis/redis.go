// Package redis stores items in Redis hashes. An INCR counter issues ids and
// a sorted set scored by id keeps them in save order.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"itemservice/pkg/item"
)

const defaultPrefix = "items"

// updateScript writes the item hash only if it already exists, so an update
// never creates a record. Returns 1 when written, 0 when the key is missing.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'itemName', ARGV[1], 'price', ARGV[2], 'quantity', ARGV[3])
return 1
`)

// Repository persists items in Redis.
type Repository struct {
	client *redis.Client
	prefix string
}

// New creates a Redis repository. An empty prefix selects "items".
func New(client *redis.Client, prefix string) *Repository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Repository{client: client, prefix: prefix}
}

func (r *Repository) seqKey() string { return r.prefix + ":seq" }
func (r *Repository) idsKey() string { return r.prefix + ":ids" }
func (r *Repository) itemKey(id int64) string { return r.prefix + ":" + strconv.FormatInt(id, 10) }

// Save assigns the next id from the counter and stores the item. The id is
// also the sorted-set score, so FindAll order is id order even when
// concurrent saves finish out of sequence.
func (r *Repository) Save(ctx context.Context, it item.Item) (item.Item, error) {
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return item.Item{}, fmt.Errorf("redis incr: %w", err)
	}
	it.ID = id
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.itemKey(id), fields(it)...)
		p.ZAdd(ctx, r.idsKey(), redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return item.Item{}, fmt.Errorf("redis save item %d: %w", id, err)
	}
	return it, nil
}

// FindByID retrieves an item by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (item.Item, error) {
	vals, err := r.client.HGetAll(ctx, r.itemKey(id)).Result()
	if err != nil {
		return item.Item{}, fmt.Errorf("redis get item %d: %w", id, err)
	}
	if len(vals) == 0 {
		return item.Item{}, item.ErrNotFound
	}
	return decode(id, vals)
}

func (r *Repository) ids(ctx context.Context) ([]int64, error) {
	raw, err := r.client.ZRange(ctx, r.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list ids: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindAll returns every item in id order.
func (r *Repository) FindAll(ctx context.Context) ([]item.Item, error) {
	ids, err := r.ids(ctx)
	if err != nil {
		return nil, err
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, r.itemKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis get items: %w", err)
	}

	items := make([]item.Item, 0, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			continue
		}
		it, err := decode(ids[i], vals)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Update replaces the fields of an existing item.
func (r *Repository) Update(ctx context.Context, id int64, values item.Item) error {
	n, err := updateScript.Run(ctx, r.client, []string{r.itemKey(id)},
		values.ItemName, values.Price, values.Quantity).Int()
	if err != nil {
		return fmt.Errorf("redis update item %d: %w", id, err)
	}
	if n == 0 {
		return item.ErrNotFound
	}
	return nil
}

// ClearStore deletes every item key, the id set and the counter.
func (r *Repository) ClearStore(ctx context.Context) error {
	ids, err := r.ids(ctx)
	if err != nil {
		return err
	}
	keys := []string{r.idsKey(), r.seqKey()}
	for _, id := range ids {
		keys = append(keys, r.itemKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func fields(it item.Item) []interface{} {
	return []interface{}{
		"itemName", it.ItemName,
		"price", it.Price,
		"quantity", it.Quantity,
	}
}

func decode(id int64, vals map[string]string) (item.Item, error) {
	price, err := strconv.Atoi(vals["price"])
	if err != nil {
		return item.Item{}, fmt.Errorf("redis item %d price: %w", id, err)
	}
	qty, err := strconv.Atoi(vals["quantity"])
	if err != nil {
		return item.Item{}, fmt.Errorf("redis item %d quantity: %w", id, err)
	}
	return item.Item{ID: id, ItemName: vals["itemName"], Price: price, Quantity: qty}, nil
}
