package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	cacheKeyPrefix  = "profile::"
)

var (
	ErrInvalidEmail = fmt.Errorf("%w: invalid email address", ErrInvalidValue)
	ErrEmailTaken   = errors.New("email already in use")
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=profile_test

type profileRepo interface {
	Get(ctx context.Context, id int) (*Profile, error)
	Update(ctx context.Context, id int, in Input) (*Profile, error)
	UpdateEmail(ctx context.Context, id int, email string) (*Profile, error)
}

type ServiceParams struct {
	Repo           profileRepo
	RedisClient    *redis.Client
	Verifier       *EmailVerifier
	Mailer         Mailer
	MetricsManager *metrics.Manager
	CacheTTL       time.Duration
}

type Service struct {
	repo        profileRepo
	redisClient *redis.Client
	verifier    *EmailVerifier
	mailer      Mailer
	metrics     *metrics.Manager
	cacheTTL    time.Duration
}

func NewService(params ServiceParams) *Service {
	if params.CacheTTL <= 0 {
		params.CacheTTL = DefaultCacheTTL
	}
	if params.Mailer == nil {
		params.Mailer = LogMailer{}
	}
	return &Service{
		repo:        params.Repo,
		redisClient: params.RedisClient,
		verifier:    params.Verifier,
		mailer:      params.Mailer,
		metrics:     params.MetricsManager,
		cacheTTL:    params.CacheTTL,
	}
}

func cacheKey(id int) string {
	return cacheKeyPrefix + strconv.Itoa(id)
}

func (s *Service) Get(ctx context.Context, id int) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("profile.id", id))

	if p, ok := s.fromCache(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return p, nil
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, p)

	return p, nil
}

// Update applies a partial update. The required fields must be carried and
// non-blank, email is never accepted here.
func (s *Service) Update(ctx context.Context, id int, in Input) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("profile.id", id))

	in = in.Normalized()
	if err := in.Validate(true); err != nil {
		s.countSave("invalid")
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			s.countSave("not_found")
		} else {
			s.countSave("error")
		}
		return nil, err
	}

	s.Invalidate(ctx, id)
	s.countSave("ok")
	s.metrics.HistogramProfileSaveSize.Observe(float64(len(in)))

	return p, nil
}

// Invalidate drops the cached copy of the profile.
func (s *Service) Invalidate(ctx context.Context, id int) {
	if err := s.redisClient.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Errorf("invalidate profile [%d] cache: %s", id, err)
	}
}

// RequestEmailChange starts the verification of a new email address and
// returns the request id. The code goes out through the mailer.
func (s *Service) RequestEmailChange(ctx context.Context, id int, newEmail string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.request_email_change")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		s.countEmailChange("request", err)
	}()

	email, err := parseEmail(newEmail)
	if err != nil {
		return "", err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(p.Email, email) {
		return "", fmt.Errorf("%w: email unchanged", ErrInvalidValue)
	}

	requestID, code, err := s.verifier.Create(ctx, id, email)
	if err != nil {
		return "", fmt.Errorf("create email change request: %w", err)
	}
	if err := s.mailer.SendConfirmationCode(ctx, email, code); err != nil {
		return "", fmt.Errorf("send confirmation code: %w", err)
	}

	return requestID, nil
}

func (s *Service) ConfirmEmailChange(ctx context.Context, id int, requestID, code string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.confirm_email_change")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		s.countEmailChange("confirm", err)
	}()

	email, err := s.verifier.Verify(ctx, id, requestID, code)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateEmail(ctx, id, email)
	if err != nil {
		if constraint, ok := pkg.UniqueViolation(err); ok {
			log.Debugf("profile [%d] email change hit [%s]", id, constraint)
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.Invalidate(ctx, id)

	return p, nil
}

func (s *Service) fromCache(ctx context.Context, id int) (*Profile, bool) {
	cmd := s.redisClient.Get(ctx, cacheKey(id))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			s.countCache("miss")
		} else {
			log.Warnf("profile [%d] cache get: %s", id, err)
			s.countCache("error")
		}
		return nil, false
	}

	var p Profile
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		log.Warnf("profile [%d] cache unmarshal: %s", id, err)
		s.countCache("error")
		return nil, false
	}

	s.countCache("hit")
	return &p, true
}

func (s *Service) toCache(ctx context.Context, p *Profile) {
	pJson, err := json.Marshal(p)
	if err != nil {
		log.Warnf("profile [%d] cache marshal: %s", p.ID, err)
		return
	}
	if err := s.redisClient.Set(ctx, cacheKey(p.ID), string(pJson), s.cacheTTL).Err(); err != nil {
		log.Warnf("profile [%d] cache set: %s", p.ID, err)
	}
}

func (s *Service) countSave(result string) {
	s.metrics.CounterProfileSaves.With(prometheus.Labels{"result": result}).Inc()
}

func (s *Service) countCache(outcome string) {
	s.metrics.CounterProfileCache.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (s *Service) countEmailChange(step string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCode):
		result = "invalid_code"
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrProfileNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidValue):
		result = "invalid"
	default:
		result = "error"
	}
	s.metrics.CounterEmailChangeRequests.With(prometheus.Labels{
		"step":   step,
		"result": result,
	}).Inc()
}

func parseEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}
