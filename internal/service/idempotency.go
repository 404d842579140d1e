package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"winecellar/internal/apierror"
	"winecellar/internal/model"
	"winecellar/internal/observability"
	"winecellar/internal/repository"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errKeyClaimed aborts a transaction whose idempotency key was committed by
// another request first.
var errKeyClaimed = errors.New("idempotency key already claimed")

// IdempotencyGuard deduplicates client retries of cellar writes. The key row
// is claimed in the same transaction as the write, so a key exists if and
// only if its operation committed. The optional Redis lock only makes a
// concurrent duplicate fail fast instead of queueing on the key's index.
type IdempotencyGuard struct {
	repo    repository.IdempotencyRepository
	locker  *redislock.Client
	lockTTL time.Duration
}

// NewIdempotencyGuard builds a guard. rdb may be nil.
func NewIdempotencyGuard(repo repository.IdempotencyRepository, rdb *redis.Client, lockTTL time.Duration) *IdempotencyGuard {
	g := &IdempotencyGuard{repo: repo, lockTTL: lockTTL}
	if rdb != nil {
		g.locker = redislock.New(rdb)
	}
	return g
}

func fingerprint(operation string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(operation+"\n"), body...))
	return hex.EncodeToString(sum[:]), nil
}

// idempotent runs fn in a cellar transaction. With an empty key it is a plain
// transaction. With a key, a replay of the same request returns the stored
// response without running fn; replayed reports that case.
func idempotent[T any](
	ctx context.Context,
	g *IdempotencyGuard,
	db *gorm.DB,
	key, operation string,
	request any,
	fn func(tx *gorm.DB) (*T, error),
) (res *T, replayed bool, err error) {
	if key == "" || g == nil {
		err = runCellarTx(ctx, db, operation, func(tx *gorm.DB) error {
			var fnErr error
			res, fnErr = fn(tx)
			return fnErr
		})
		return res, false, err
	}

	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, false, err
	}
	fp, err := fingerprint(operation, request)
	if err != nil {
		return nil, false, apierror.Validation("request cannot be fingerprinted")
	}

	if g.locker != nil {
		lock, lockErr := g.locker.Obtain(ctx, fmt.Sprintf("idem:%s:%s", tenantID, key), g.lockTTL, nil)
		switch {
		case errors.Is(lockErr, redislock.ErrNotObtained):
			return nil, false, failed(operation, apierror.Conflict(apierror.CodeOperationInProgress,
				"operation %s is already in progress", key))
		case lockErr != nil:
			// The key row remains the authoritative guard.
			log.Warn().Err(lockErr).Str("operation", operation).Msg("idempotency lock unavailable; continuing without it")
		default:
			defer func() { _ = lock.Release(context.Background()) }()
		}
	}

	stored, err := replay[T](ctx, g, key, operation, fp)
	switch {
	case err == nil:
		return stored, true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	start := time.Now()
	err = runTx(ctx, db, func(tx *gorm.DB) error {
		claim := &model.IdempotencyKey{
			TenantID:    tenantID,
			Key:         key,
			Operation:   operation,
			Fingerprint: fp,
			Response:    datatypes.JSON("{}"),
		}
		if err := g.repo.CreateTx(tx, claim); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errKeyClaimed
			}
			return err
		}
		out, err := fn(tx)
		if err != nil {
			return err
		}
		body, err := json.Marshal(out)
		if err != nil {
			return err
		}
		if err := g.repo.SaveResponseTx(tx, claim, datatypes.JSON(body)); err != nil {
			return err
		}
		res = out
		return nil
	})
	observability.ObserveTx(operation, start)

	if errors.Is(err, errKeyClaimed) {
		res, err = replay[T](ctx, g, key, operation, fp)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, failed(operation, err)
		}
		return res, err == nil, err
	}
	if err != nil {
		return nil, false, failed(operation, err)
	}
	return res, false, nil
}

// replay returns the stored response for key. It returns gorm.ErrRecordNotFound
// when the key has not been used yet.
func replay[T any](ctx context.Context, g *IdempotencyGuard, key, operation, fp string) (*T, error) {
	stored, err := g.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, failed(operation, err)
	}
	if stored.Operation != operation || stored.Fingerprint != fp {
		return nil, failed(operation, apierror.Conflict(apierror.CodeIdempotencyMismatch,
			"idempotency key %s was used for a different request", key))
	}
	var out T
	if err := json.Unmarshal(stored.Response, &out); err != nil {
		return nil, failed(operation, err)
	}
	observability.RecordReplay()
	return &out, nil
}
