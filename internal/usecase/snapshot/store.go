package snapshot

import (
	"context"
	"encoding/json"

	snapshotv1 "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/muhammadchandra19/datafeed/pkg/redis"
)

// Key is the redis key, before the client prefix, holding the engine snapshot.
const Key = "snapshot"

// Store keeps the engine snapshot in Redis as JSON.
type Store struct {
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a new Store with the given Redis client.
func NewSnapshotStore(redisclient redis.Client, log *logger.Logger) *Store {
	return &Store{
		redisclient: redisclient,
		logger:      log,
	}
}

// Store stores the snapshot in Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "sequence", Value: snapshot.Sequence})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, Key, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "sequence", Value: snapshot.Sequence},
			logger.Field{Key: "action", Value: "store snapshot"},
		)
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		logger.Field{Key: "sequence", Value: snapshot.Sequence},
		logger.Field{Key: "books", Value: len(snapshot.Books)},
	)
	return nil
}

// LoadStore loads the snapshot from Redis. A missing key yields nil, nil.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, Key)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "load snapshot"})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "no snapshot found", logger.Field{Key: "action", Value: "load snapshot"})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "unmarshal snapshot"})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
