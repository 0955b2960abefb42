package audit

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

// RedisJournal keeps entries in a capped Redis list, newest at the head.
// Ids come from an INCR counter next to the list, so clients sharing the
// journal never hand out the same id.
type RedisJournal struct {
	client   goredis.UniversalClient
	key      string
	seqKey   string
	capacity int64
}

// NewRedisJournal stores entries under "subguard:audit:<account>" and the id
// counter under "subguard:audit:<account>:seq".
func NewRedisJournal(client goredis.UniversalClient, account string, capacity int) *RedisJournal {
	if capacity < 1 {
		capacity = 1
	}
	return &RedisJournal{
		client:   client,
		key:      "subguard:audit:" + account,
		seqKey:   "subguard:audit:" + account + ":seq",
		capacity: int64(capacity),
	}
}

func (j *RedisJournal) NextID(ctx context.Context) (uint64, error) {
	id, err := j.client.Incr(ctx, j.seqKey).Uint64()
	if err != nil {
		return 0, fmt.Errorf("redis allocate audit id: %w", err)
	}
	return id, nil
}

func (j *RedisJournal) Append(ctx context.Context, e models.AuditEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry %d: %w", e.ID, err)
	}
	_, err = j.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.LPush(ctx, j.key, data)
		p.LTrim(ctx, j.key, 0, j.capacity-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append audit entry %d: %w", e.ID, err)
	}
	return nil
}

func (j *RedisJournal) Recent(ctx context.Context, n int) ([]models.AuditEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := j.client.LRange(ctx, j.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read audit entries: %w", err)
	}
	result := make([]models.AuditEntry, 0, len(raw))
	for _, s := range raw {
		var e models.AuditEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("unmarshal audit entry: %w", err)
		}
		result = append(result, e)
	}
	return result, nil
}
