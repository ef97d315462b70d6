package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultEmailChangeTTL = 15 * time.Minute
	MaxConfirmAttempts    = 5
	confirmationCodeLen   = 6
	emailChangeKeyPrefix  = "profile-email-change::"
	attemptsKeyPrefix     = "profile-email-change-attempts::"
)

var (
	ErrRequestNotFound = errors.New("email change request not found")
	ErrInvalidCode     = errors.New("invalid confirmation code")
)

type emailChangeRequest struct {
	ProfileID int    `json:"profileId"`
	Email     string `json:"email"`
	CodeHash  string `json:"codeHash"`
}

// EmailVerifier keeps pending email changes in redis until the confirmation
// code sent to the new address comes back.
type EmailVerifier struct {
	redisClient *redis.Client
	ttl         time.Duration

	// injectable for unit and dev testing
	RandCodeFunc func(n int) (string, error)
	NewIDFunc    func() string
	HashFunc     func(code string) (string, error)
}

func NewEmailVerifier(redisClient *redis.Client, ttl time.Duration) *EmailVerifier {
	if ttl <= 0 {
		ttl = DefaultEmailChangeTTL
	}
	return &EmailVerifier{
		redisClient:  redisClient,
		ttl:          ttl,
		RandCodeFunc: pkg.GenerateNumericCode,
		NewIDFunc:    uuid.NewString,
		HashFunc: func(code string) (string, error) {
			return pkg.HashSecret(code, bcrypt.DefaultCost)
		},
	}
}

func emailChangeKey(requestID string) string {
	return emailChangeKeyPrefix + requestID
}

func attemptsKey(requestID string) string {
	return attemptsKeyPrefix + requestID
}

// Create stores a new request and returns its id together with the plain
// confirmation code. Only the code hash is stored.
func (v *EmailVerifier) Create(ctx context.Context, profileID int, email string) (requestID, code string, err error) {
	code, err = v.RandCodeFunc(confirmationCodeLen)
	if err != nil {
		return "", "", fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := v.HashFunc(code)
	if err != nil {
		return "", "", fmt.Errorf("hash code: %w", err)
	}

	requestID = v.NewIDFunc()
	reqJson, err := json.Marshal(emailChangeRequest{
		ProfileID: profileID,
		Email:     email,
		CodeHash:  codeHash,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}

	cmd := v.redisClient.Set(ctx, emailChangeKey(requestID), string(reqJson), v.ttl)
	if err := cmd.Err(); err != nil {
		return "", "", fmt.Errorf("store request: %w", err)
	}

	return requestID, code, nil
}

// Verify checks the code and returns the new email. Every check counts as an
// attempt, and the request is dropped once MaxConfirmAttempts wrong codes
// came in. The counter lives in its own key and is bumped atomically, so
// concurrent guesses cannot check more than MaxConfirmAttempts codes.
func (v *EmailVerifier) Verify(ctx context.Context, profileID int, requestID, code string) (string, error) {
	key := emailChangeKey(requestID)
	cmd := v.redisClient.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRequestNotFound
		}
		return "", fmt.Errorf("get request: %w", err)
	}

	var req emailChangeRequest
	if err := json.Unmarshal([]byte(cmd.Val()), &req); err != nil {
		return "", fmt.Errorf("unmarshal request: %w", err)
	}
	if req.ProfileID != profileID {
		return "", ErrRequestNotFound
	}

	attempt, err := v.countAttempt(ctx, requestID)
	if err != nil {
		return "", err
	}
	if attempt > MaxConfirmAttempts {
		// lost the race against the attempt that dropped the request
		if err := v.redisClient.Del(ctx, key).Err(); err != nil {
			return "", fmt.Errorf("drop request: %w", err)
		}
		return "", ErrRequestNotFound
	}

	if !pkg.CheckSecretHash(code, req.CodeHash) {
		if attempt == MaxConfirmAttempts {
			if err := v.redisClient.Del(ctx, key).Err(); err != nil {
				return "", fmt.Errorf("drop request: %w", err)
			}
			return "", fmt.Errorf("%w: too many attempts, request dropped", ErrInvalidCode)
		}
		return "", ErrInvalidCode
	}

	deleted, err := v.redisClient.Del(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("delete request: %w", err)
	}
	if deleted == 0 {
		// confirmed or dropped by a concurrent call
		return "", ErrRequestNotFound
	}

	return req.Email, nil
}

// countAttempt bumps the attempts counter of a request and returns the new
// value. The counter is left to expire, so late attempts still see it.
func (v *EmailVerifier) countAttempt(ctx context.Context, requestID string) (int64, error) {
	key := attemptsKey(requestID)
	var incr *redis.IntCmd
	if _, err := v.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, v.ttl)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("count attempt: %w", err)
	}
	return incr.Val(), nil
}
