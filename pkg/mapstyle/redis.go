package mapstyle

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// openRedis reads every member of a GEO set as a point. Parameters: addr,
// key, db, password, timeout.
func openRedis(ctx context.Context, p Params, _ string) ([]Geometry, error) {
	addr, key := p["addr"], p["key"]
	if addr == "" || key == "" {
		return nil, errors.New(errors.ErrCodeStyleLoad, "redis datasource requires addr and key")
	}
	db := 0
	if v, ok := p["db"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New(errors.ErrCodeStyleLoad, "invalid redis db %q", v)
		}
		db = n
	}
	timeout := p.Duration("timeout", defaultConnectTimeout)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     p["password"],
		DB:           db,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		MaxRetries:   -1,
		WriteTimeout: timeout,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Unavailable(err, "redis plugin: could not connect to server")
	}

	members, err := client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "read geo set %s", key)
	}
	if len(members) == 0 {
		return nil, nil
	}
	positions, err := client.GeoPos(ctx, key, members...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "read geo set %s", key)
	}

	out := make([]Geometry, 0, len(positions))
	for _, pos := range positions {
		if pos == nil {
			continue
		}
		out = append(out, Geometry{Kind: KindPoint, Parts: [][]Point{{{X: pos.Longitude, Y: pos.Latitude}}}})
	}
	return out, nil
}
