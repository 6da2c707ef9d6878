package report

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/visualtest/pkg/errors"
)

const defaultStoreTimeout = 2 * time.Second

// =============================================================================
// Redis
// =============================================================================

// RedisConfig configures a RedisSink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Key is the list each result is appended to. Defaults to
	// "visualtest:<run id>".
	Key string

	// Channel, when set, also receives every result via PUBLISH.
	Channel string

	Timeout time.Duration
}

// RedisSink appends results as JSON to a Redis list and optionally
// publishes them on a channel for live dashboards.
type RedisSink struct {
	client  *redis.Client
	key     string
	channel string
	timeout time.Duration
	runID   string

	mu  sync.Mutex
	err error
}

// NewRedisSink connects to Redis. An unreachable server yields a
// DATASOURCE_UNAVAILABLE error.
func NewRedisSink(ctx context.Context, runID string, cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "redis sink requires an address")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultStoreTimeout
	}
	if cfg.Key == "" {
		cfg.Key = "visualtest:" + runID
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		MaxRetries:   -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Unavailable(err, "redis sink: could not connect to server")
	}

	return &RedisSink{
		client:  client,
		key:     cfg.Key,
		channel: cfg.Channel,
		timeout: cfg.Timeout,
		runID:   runID,
	}, nil
}

// Key returns the list the results are appended to.
func (s *RedisSink) Key() string { return s.key }

// Report pushes r. Failures are recorded and surface through Err.
func (s *RedisSink) Report(r Result) {
	data, err := json.Marshal(storedResult{RunID: s.runID, Result: r})
	if err != nil {
		s.setErr(err)
		return
	}

	err = retry(context.Background(), storeAttempts, storeRetryDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		pipe := s.client.TxPipeline()
		pipe.RPush(ctx, s.key, data)
		if s.channel != "" {
			pipe.Publish(ctx, s.channel, data)
		}
		_, err := pipe.Exec(ctx)
		return classify(err)
	})
	if err != nil {
		s.setErr(errors.Wrap(errors.ErrCodeInternal, err, "redis sink"))
	}
}

// Err returns the first error encountered while reporting.
func (s *RedisSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

func (s *RedisSink) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// =============================================================================
// MongoDB
// =============================================================================

// MongoConfig configures a MongoSink.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoSink inserts one document per result, tagged with the run ID.
type MongoSink struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	runID   string

	mu  sync.Mutex
	err error
}

// storedResult is the document written by the store sinks.
type storedResult struct {
	RunID  string `json:"run_id" bson:"run_id"`
	Result `bson:",inline"`
}

// NewMongoSink connects to MongoDB. An unreachable server yields a
// DATASOURCE_UNAVAILABLE error.
func NewMongoSink(ctx context.Context, runID string, cfg MongoConfig) (*MongoSink, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongodb sink requires a uri")
	}
	if cfg.Database == "" {
		cfg.Database = "visualtest"
	}
	if cfg.Collection == "" {
		cfg.Collection = "results"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultStoreTimeout
	}

	connCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, errors.Unavailable(err, "mongodb sink: invalid connection settings")
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Unavailable(err, "mongodb sink: could not connect to server")
	}

	return &MongoSink{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
		runID:   runID,
	}, nil
}

// Report inserts r. Failures are recorded and surface through Err.
func (s *MongoSink) Report(r Result) {
	doc := storedResult{RunID: s.runID, Result: r}
	err := retry(context.Background(), storeAttempts, storeRetryDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		_, err := s.coll.InsertOne(ctx, doc)
		return classify(err)
	})
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = errors.Wrap(errors.ErrCodeInternal, err, "mongodb sink")
		}
		s.mu.Unlock()
	}
}

// Err returns the first error encountered while reporting.
func (s *MongoSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close disconnects from the server.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
