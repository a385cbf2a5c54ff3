package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/scifinder/internal/db"
)

// HSet sets hash fields. Existing fields are overwritten, so repeated writes are idempotent.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.do(ctx, s.hset(key, fields)).Error(); err != nil {
		return opError(db.OpHSet, key, err)
	}
	return nil
}

// HSetMulti pipelines one HSET per item through DoMulti.
// The returned slice has one entry per item; nil means the item was written.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) []error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmds[i] = s.hset(item.Key, item.Fields)
	}

	errs := make([]error, len(items))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			errs[i] = opError(db.OpHSet, items[i].Key, err)
		}
	}
	return errs
}

func (s *Store) hset(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	return cmd.Build()
}
