package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	redisadapter "github.com/robertarktes/travel-agency/internal/adapters/redis"
)

var (
	// ErrInFlight is returned by Begin when another request holds the same key.
	ErrInFlight = errors.New("request with this Idempotency-Key is in progress")
	// ErrKeyReused is returned by Begin when key was stored for a different request body.
	ErrKeyReused = errors.New("Idempotency-Key was already used with a different request body")
)

const lockTTL = 30 * time.Second

type Idempotency struct {
	redis *redisadapter.Idempotency
	locks *redisadapter.Cache
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, locks *redisadapter.Cache, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, locks: locks, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

// Claim is what Begin hands out. Replay is set when a stored response
// should be served; otherwise the caller holds the in-flight lock as Owner.
type Claim struct {
	Replay      *Response
	Fingerprint string
	Owner       string
}

// Fingerprint identifies a request body so a key cannot be replayed for a different request.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Begin returns a replay claim when a response for key is stored. Otherwise it
// takes the in-flight lock for key; the caller must End the claim.
func (i *Idempotency) Begin(ctx context.Context, key, fingerprint string) (*Claim, error) {
	stored, err := i.redis.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "get idempotent response")
	}
	if stored != nil {
		if stored.Fingerprint != fingerprint {
			return nil, ErrKeyReused
		}
		return &Claim{Replay: &Response{Status: stored.Status, Result: stored.Result}, Fingerprint: fingerprint}, nil
	}

	owner := uuid.NewString()
	ok, err := i.locks.Acquire(ctx, lockKey(key), owner, lockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "acquire idempotency lock")
	}
	if !ok {
		return nil, ErrInFlight
	}
	return &Claim{Fingerprint: fingerprint, Owner: owner}, nil
}

// End stores resp under key (when non-nil) and releases the lock if the claim still owns it.
func (i *Idempotency) End(ctx context.Context, key string, claim *Claim, resp *Response) error {
	if claim == nil || claim.Replay != nil {
		return nil
	}
	var err error
	if resp != nil {
		err = i.redis.Set(ctx, key, redisadapter.IdempResponse{
			Status:      resp.Status,
			Result:      resp.Result,
			Fingerprint: claim.Fingerprint,
		}, i.ttl)
		err = errors.Wrap(err, "store idempotent response")
	}
	if _, relErr := i.locks.Release(ctx, lockKey(key), claim.Owner); relErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(relErr, "release idempotency lock"))
	}
	return err
}

func lockKey(key string) string {
	return "idemp:lock:" + key
}
