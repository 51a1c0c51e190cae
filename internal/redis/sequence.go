package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/consultation-scheduling/internal/ident"
)

type redisSequence struct {
	client *redis.Client
	kind   ident.Kind
}

// NewRedisSequence allocates identifiers from an INCR counter so that every
// api-server instance draws from the same sequence.
func NewRedisSequence(client *redis.Client, kind ident.Kind) ident.Sequence {
	return &redisSequence{client: client, kind: kind}
}

func sequenceKey(kind ident.Kind) string {
	return fmt.Sprintf("seq:%s", kind)
}

func (s *redisSequence) Next(ctx context.Context) (string, error) {
	n, err := s.client.Incr(ctx, sequenceKey(s.kind)).Result()
	if err != nil {
		return "", fmt.Errorf("next %s id: %w", s.kind, err)
	}
	return ident.Format(s.kind, n), nil
}
