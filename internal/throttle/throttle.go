// Package throttle implements the persistent token-bucket limiter that
// protects every sensitive operation of the engine. Buckets live in the
// shared database so that all server processes drain the same supply.
package throttle

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Bucket is the persistent state of one token bucket. The primary key is a
// hash of the criteria tuple, at most 44 characters. ExpiresAt is a hint for
// garbage collection only; expired rows are still valid if encountered.
type Bucket struct {
	Bucket        string  `gorm:"primaryKey;size:44"`
	Tokens        float64 `gorm:"not null"`
	ReplenishedAt int64   `gorm:"column:replenished_at;not null"`
	ExpiresAt     int64   `gorm:"column:expires_at;not null;index"`
}

// TableName describes the tablename operation and its observable behavior.
func (Bucket) TableName() string { return "users_throttling" }

// Options tunes a single throttle consultation beyond the mandatory
// supply/interval pair.
type Options struct {
	// Burstiness is the permitted degree of unevenness during peaks (>= 1).
	Burstiness int
	// Simulated requests a dry run that consumes nothing.
	Simulated bool
	// Cost is the number of units to request (>= 1).
	Cost int
	// Force applies throttling for this call even when the limiter is
	// globally disabled.
	Force bool
}

// LimitExceededError reports that demand exceeded the designated supply.
type LimitExceededError struct {
	WaitSeconds int
	Key         string
	Criteria    string
}

// Error describes the error operation and its observable behavior.
func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("throttle bucket %s exhausted, retry in %d seconds", e.Key, e.WaitSeconds)
}

// Limiter consults and updates token buckets in the database. It holds no
// in-process state beyond configuration; concurrent callers across processes
// are reconciled by the update-else-insert protocol below.
type Limiter struct {
	db      *gorm.DB
	enabled bool
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a [Limiter] on the given database handle. When enabled is
// false every consultation is bypassed unless forced per call.
func New(db *gorm.DB, enabled bool, now func() time.Time, logger *slog.Logger) *Limiter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{db: db, enabled: enabled, now: now, logger: logger}
}

// Enabled describes the enabled operation and its observable behavior.
func (l *Limiter) Enabled() bool { return l.enabled }

// Key derives the stable bucket key for a criteria tuple: URL-safe unpadded
// base64 of the SHA-256 hash over the criteria joined with newlines.
func Key(criteria []string) string {
	sum := sha256.Sum256([]byte(strings.Join(criteria, "\n")))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Throttle performs one token-bucket consultation for the given criteria
// tuple. supply units are provided per interval seconds; the bucket capacity
// is burstiness*supply. It returns the number of units remaining, or a
// *LimitExceededError carrying the estimated waiting time when demand
// exceeded the supply. Database failures are returned as-is for the caller
// to classify.
func (l *Limiter) Throttle(ctx context.Context, criteria []string, supply, interval int, opt Options) (float64, error) {
	if opt.Burstiness < 1 {
		opt.Burstiness = 1
	}
	if opt.Cost < 1 {
		opt.Cost = 1
	}
	if supply < 1 || interval < 5 {
		return 0, errors.New("throttle: supply must be >= 1 and interval >= 5")
	}

	if !l.enabled && !opt.Force {
		return float64(supply), nil
	}

	key := Key(criteria)
	now := l.now().Unix()

	capacity := float64(opt.Burstiness * supply)
	bandwidthPerSecond := float64(supply) / float64(interval)

	tokens := capacity
	replenishedAt := now

	var row Bucket
	err := l.db.WithContext(ctx).Where("bucket = ?", key).Take(&row).Error
	switch {
	case err == nil:
		tokens = row.Tokens
		replenishedAt = row.ReplenishedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		// lazily initialized below
	default:
		return 0, err
	}

	secondsSinceReplenishment := now - replenishedAt
	if secondsSinceReplenishment < 0 {
		secondsSinceReplenishment = 0
	}
	tokens = math.Min(capacity, tokens+float64(secondsSinceReplenishment)*bandwidthPerSecond)

	accepted := tokens >= float64(opt.Cost)

	if !opt.Simulated {
		if accepted {
			tokens = math.Max(0, tokens-float64(opt.Cost))
		}

		// the earliest time after which the row may be garbage-collected
		expiresAt := now + int64(math.Ceil(capacity/bandwidthPerSecond*2))

		res := l.db.WithContext(ctx).Model(&Bucket{}).Where("bucket = ?", key).Updates(map[string]any{
			"tokens":         tokens,
			"replenished_at": now,
			"expires_at":     expiresAt,
		})
		if res.Error != nil {
			return 0, res.Error
		}

		if res.RowsAffected == 0 {
			// Another process may insert the same bucket between our update
			// and this insert; the conflict is benign because that insert
			// reflects equivalent state, so it is ignored.
			insert := l.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Bucket{Bucket: key, Tokens: tokens, ReplenishedAt: now, ExpiresAt: expiresAt})
			if insert.Error != nil {
				return 0, insert.Error
			}
			if insert.RowsAffected == 0 {
				l.logger.Debug("throttle bucket insert lost benign race", "bucket", key)
			}
		}
	}

	if accepted {
		return tokens, nil
	}

	tokensMissing := float64(opt.Cost) - tokens
	return tokens, &LimitExceededError{
		WaitSeconds: int(math.Ceil(tokensMissing / bandwidthPerSecond)),
		Key:         key,
		Criteria:    strings.Join(criteria, "; "),
	}
}
