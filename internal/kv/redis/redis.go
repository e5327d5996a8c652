// Package redis is a kv engine on a single Redis node. Entries live in
// hashes, a sorted set with equal scores keeps the keys in byte order for
// ZRANGEBYLEX, and commits run as one Lua script so checks and writes are
// applied atomically.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"linkframe/internal/kv"
)

const (
	seqKey         = "kv:seq"
	indexKey       = "kv:index"
	entryPrefix    = "kv:e:"
	changesChannel = "kv:changes"
)

// KEYS[1] sequence, KEYS[2] index.
// ARGV: nchecks, (key, versionstamp)*, nmutations, (op, key, value)*
var commitScript = redis.NewScript(`
local prefix = 'kv:e:'
local i = 1
local nchecks = tonumber(ARGV[i]); i = i + 1
for _ = 1, nchecks do
  local current = redis.call('HGET', prefix .. ARGV[i], 'vs')
  if not current then current = '' end
  if current ~= ARGV[i + 1] then
    return false
  end
  i = i + 2
end

local vs = string.format('%020d', redis.call('INCR', KEYS[1]))
local nmutations = tonumber(ARGV[i]); i = i + 1
for _ = 1, nmutations do
  local op, key, value = ARGV[i], ARGV[i + 1], ARGV[i + 2]
  if op == 'del' then
    redis.call('DEL', prefix .. key)
    redis.call('ZREM', KEYS[2], key)
  else
    redis.call('HSET', prefix .. key, 'v', value, 'vs', vs)
    redis.call('ZADD', KEYS[2], 0, key)
  end
  redis.call('PUBLISH', 'kv:changes', key)
  i = i + 3
end
return vs
`)

type Redis struct {
	client *redis.Client
}

// Open connects using a redis:// URL.
func Open(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = time.Second
	opt.WriteTimeout = time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func New(ctx context.Context, url string, opts ...kv.Option) (*kv.DB, error) {
	engine, err := Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return kv.New(engine, opts...), nil
}

func (r *Redis) Get(ctx context.Context, keys [][]byte) ([]kv.RawEntry, error) {
	cmds := make([]*redis.SliceCmd, len(keys))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HMGet(ctx, entryPrefix+string(k), "v", "vs")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}

	out := make([]kv.RawEntry, len(keys))
	for i, k := range keys {
		out[i] = toEntry(k, cmds[i].Val())
	}
	return out, nil
}

func toEntry(key []byte, fields []any) kv.RawEntry {
	e := kv.RawEntry{Key: key}
	if len(fields) != 2 || fields[1] == nil {
		return e
	}
	v, _ := fields[0].(string)
	vs, _ := fields[1].(string)
	e.Value = []byte(v)
	e.Versionstamp = kv.Versionstamp(vs)
	return e
}

// Scan reads the index and then the entries. An entry deleted between the
// two reads is skipped and the index is read further, so a short result
// still means the range is exhausted.
func (r *Redis) Scan(ctx context.Context, rg kv.Range) ([]kv.RawEntry, error) {
	lower, upper := "["+string(rg.Start), "("+string(rg.End)

	var out []kv.RawEntry
	for {
		want := 0
		if rg.Limit > 0 {
			want = rg.Limit - len(out)
		}
		by := &redis.ZRangeBy{Min: lower, Max: upper, Count: int64(want)}

		var (
			members []string
			err     error
		)
		if rg.Reverse {
			members, err = r.client.ZRevRangeByLex(ctx, indexKey, by).Result()
		} else {
			members, err = r.client.ZRangeByLex(ctx, indexKey, by).Result()
		}
		if err != nil {
			return nil, fmt.Errorf("range index: %w", err)
		}
		if len(members) == 0 {
			return out, nil
		}

		keys := make([][]byte, len(members))
		for i, m := range members {
			keys[i] = []byte(m)
		}
		entries, err := r.Get(ctx, keys)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Versionstamp != "" {
				out = append(out, e)
			}
		}

		if want == 0 || len(members) < want || len(out) >= rg.Limit {
			return out, nil
		}

		// дочитываем за последним просмотренным ключом
		last := members[len(members)-1]
		if rg.Reverse {
			upper = "(" + last
		} else {
			lower = "(" + last
		}
	}
}

func (r *Redis) Commit(ctx context.Context, checks []kv.RawCheck, mutations []kv.RawMutation) (kv.Versionstamp, bool, error) {
	args := make([]any, 0, 2+2*len(checks)+3*len(mutations))
	args = append(args, len(checks))
	for _, c := range checks {
		args = append(args, c.Key, string(c.Versionstamp))
	}
	args = append(args, len(mutations))
	for _, m := range mutations {
		op := "set"
		if m.Delete {
			op = "del"
		}
		args = append(args, op, m.Key, m.Value)
	}

	vs, err := commitScript.Run(ctx, r.client, []string{seqKey, indexKey}, args...).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("run commit script: %w", err)
	}
	return kv.Versionstamp(vs), true, nil
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan [][]byte, error) {
	pubsub := r.client.Subscribe(ctx, changesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan [][]byte)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- [][]byte{[]byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
