// Package identity implements the Identity Service: the orchestration
// layer that composes the Credential Store, Token Cache, Password
// Hasher, Token Codec and Mail Dispatcher into sign-up, verify-user,
// sign-in, refresh-token and validate-token. It is reachable either as a
// direct Go interface (used by tests and by the broker consumer in
// cmd/identityd) or, in production, only via the broker RPC surface.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cruxauth/authsvc/cache"
	"github.com/cruxauth/authsvc/internal/audit"
	"github.com/cruxauth/authsvc/mail"
	"github.com/cruxauth/authsvc/metrics"
	"github.com/cruxauth/authsvc/password"
	"github.com/cruxauth/authsvc/store"
	"github.com/cruxauth/authsvc/token"
	"github.com/google/uuid"
)

// Config controls TTLs the service uses when issuing tokens and
// verification keys, plus the optional Metrics sink. A nil Metrics
// disables recording entirely.
type Config struct {
	AccessTTL       time.Duration // design default 12h
	RefreshTTL      time.Duration // design default 24h
	VerificationTTL time.Duration // design default 30m
	Metrics         *metrics.Metrics
}

func defaultConfig() Config {
	return Config{
		AccessTTL:       12 * time.Hour,
		RefreshTTL:      24 * time.Hour,
		VerificationTTL: 30 * time.Minute,
	}
}

// Service implements the five Identity Service operations.
type Service struct {
	store    store.Store
	cache    cache.Cache
	codec    *token.Codec
	hashPool *hashPool
	mailer   mail.Sender
	audit    *audit.Dispatcher
	config   Config
}

// New wires a Service from its four leaf dependencies plus the optional
// Mail Dispatcher and audit sink. cfg zero-values fall back to
// defaultConfig().
func New(st store.Store, ch cache.Cache, codec *token.Codec, hasher *password.Argon2, mailer mail.Sender, auditDispatcher *audit.Dispatcher, cfg Config) *Service {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.VerificationTTL <= 0 {
		d := defaultConfig()
		if cfg.AccessTTL <= 0 {
			cfg.AccessTTL = d.AccessTTL
		}
		if cfg.RefreshTTL <= 0 {
			cfg.RefreshTTL = d.RefreshTTL
		}
		if cfg.VerificationTTL <= 0 {
			cfg.VerificationTTL = d.VerificationTTL
		}
	}

	return &Service{
		store:    st,
		cache:    ch,
		codec:    codec,
		hashPool: newHashPool(hasher),
		mailer:   mailer,
		audit:    auditDispatcher,
		config:   cfg,
	}
}

func (s *Service) inc(id metrics.MetricID) {
	s.config.Metrics.Inc(id)
}

func (s *Service) emit(ctx context.Context, eventType, userID string, success bool, err error) {
	if s.audit == nil {
		return
	}
	ev := audit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.audit.Emit(ctx, ev)
}

// SignUp registers a new, unverified user and dispatches a verification
// email.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	if err := validateSignUp(in); err != nil {
		s.emit(ctx, "signup", "", false, err)
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		s.inc(metrics.MetricSignUpConflict)
		s.emit(ctx, "signup", "", false, ErrUserExists)
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, errUpstream(err)
	}

	hash, err := s.hashPool.Hash(ctx, in.Password)
	if err != nil {
		return nil, errUpstream(err)
	}

	verificationKey := uuid.New().String()

	// Cache write precedes the persistent insert, so a crash between the
	// two leaves only an orphaned, TTL-cleaned cache entry; mail is
	// dispatched last so a clicked verification link always has a user
	// record behind it.
	if err := s.cache.Put(ctx, cache.VerifyKey(verificationKey), []byte(in.Email), s.config.VerificationTTL); err != nil {
		return nil, errUpstream(err)
	}

	u := &store.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.inc(metrics.MetricSignUpConflict)
			s.emit(ctx, "signup", "", false, ErrUserExists)
			return nil, ErrUserExists
		}
		return nil, errUpstream(err)
	}

	if s.mailer != nil {
		go s.mailer.SendVerification(in.Email, verificationKey)
	}

	s.inc(metrics.MetricSignUpSuccess)
	s.emit(ctx, "signup", u.ID, true, nil)
	return &SignUpResult{Status: "success", Message: "registered; verify via email"}, nil
}

// VerifyUser consumes a verification key and marks the matching user
// verified. A key that is still cached but maps to an already-verified user
// yields the "already verified" body with a nil error. A successful
// verification deletes the key, so a second click on the same link finds no
// cache entry and returns the "invalid or expired verification key" body
// together with ErrInvalidKey.
func (s *Service) VerifyUser(ctx context.Context, key string) (*VerifyResult, error) {
	emailBytes, err := s.cache.Get(ctx, cache.VerifyKey(key))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.inc(metrics.MetricVerifyFailure)
			return &VerifyResult{Status: "error", Message: "invalid or expired verification key"}, ErrInvalidKey
		}
		return nil, errUpstream(err)
	}
	email := string(emailBytes)

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.inc(metrics.MetricVerifyFailure)
			return &VerifyResult{Status: "error", Message: "no such user"}, ErrNoSuchUser
		}
		return nil, errUpstream(err)
	}

	if u.IsVerified {
		return &VerifyResult{Status: "error", Message: "already verified"}, nil
	}

	if err := s.cache.Delete(ctx, cache.VerifyKey(key)); err != nil {
		return nil, errUpstream(err)
	}
	if err := s.store.UpdateVerified(ctx, u.ID, true); err != nil {
		return nil, errUpstream(err)
	}

	s.inc(metrics.MetricVerifySuccess)
	s.emit(ctx, "verify", u.ID, true, nil)
	return &VerifyResult{Status: "success", Message: "User has been verified"}, nil
}

// SignIn authenticates by email/password and issues a fresh token pair.
// Verification status never gates sign-in; it is only ever surfaced via
// ValidateToken.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*TokenPair, error) {
	u, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.inc(metrics.MetricSignInFailure)
			s.emit(ctx, "signin", "", false, ErrNoSuchUser)
			return nil, ErrNoSuchUser
		}
		return nil, errUpstream(err)
	}

	ok, err := s.hashPool.Verify(ctx, in.Password, u.PasswordHash)
	if err != nil {
		return nil, errUpstream(err)
	}
	if !ok {
		s.inc(metrics.MetricSignInFailure)
		s.emit(ctx, "signin", u.ID, false, ErrBadPassword)
		return nil, ErrBadPassword
	}

	pair, err := s.issueAndCachePair(ctx, u.Email, u.ID)
	if err != nil {
		return nil, err
	}

	s.inc(metrics.MetricSignInSuccess)
	s.emit(ctx, "signin", u.ID, true, nil)
	return pair, nil
}

// RefreshToken redeems a refresh token for a new access/refresh pair.
// Token-flow failures are returned as a success-shaped RefreshResult
// (IsValid=false), never as an error.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.codec.Parse(refreshToken)
	if err != nil {
		s.inc(metrics.MetricRefreshFailure)
		return &RefreshResult{IsValid: false, Message: tokenMessage(classifyCodecError(err))}, nil
	}

	cached, err := s.cache.Get(ctx, cache.JWTKey(claims.Email))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.inc(metrics.MetricRefreshFailure)
			return &RefreshResult{IsValid: false, Message: tokenMessage(failureNotRefreshToken)}, nil
		}
		return nil, errUpstream(err)
	}

	var cachedPair wireTokenPair
	if err := json.Unmarshal(cached, &cachedPair); err != nil {
		s.inc(metrics.MetricRefreshFailure)
		return &RefreshResult{IsValid: false, Message: tokenMessage(failureNotRefreshToken)}, nil
	}

	if claims.Role != token.RoleRefresh || cachedPair.RefreshToken != refreshToken {
		s.inc(metrics.MetricRefreshFailure)
		return &RefreshResult{IsValid: false, Message: tokenMessage(failureNotRefreshToken)}, nil
	}

	// Single-use enforcement: delete iff the cache still holds exactly the
	// pair we just validated against. A concurrent refresh racing on the
	// same email loses this compare-and-delete and falls through to the
	// same NotRefreshToken response.
	deleted, err := s.cache.CompareAndDelete(ctx, cache.JWTKey(claims.Email), cached)
	if err != nil {
		return nil, errUpstream(err)
	}
	if !deleted {
		s.inc(metrics.MetricRefreshFailure)
		return &RefreshResult{IsValid: false, Message: tokenMessage(failureNotRefreshToken)}, nil
	}

	pair, err := s.issueAndCachePair(ctx, claims.Email, claims.Subject)
	if err != nil {
		return nil, err
	}

	s.inc(metrics.MetricRefreshSuccess)
	s.emit(ctx, "refresh", claims.Subject, true, nil)
	return &RefreshResult{
		IsValid:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Message:      "valid",
	}, nil
}

// ValidateToken checks an access token's signature, cache entry and
// owning user, reporting whether that user is verified.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (*ValidateResult, error) {
	start := time.Now()
	defer func() { s.config.Metrics.ObserveValidateLatency(time.Since(start)) }()

	claims, err := s.codec.Parse(accessToken)
	if err != nil {
		s.inc(metrics.MetricValidateFailure)
		return &ValidateResult{IsValid: false, IsVerified: false, Message: tokenMessage(classifyCodecError(err))}, nil
	}

	cached, err := s.cache.Get(ctx, cache.JWTKey(claims.Email))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.inc(metrics.MetricValidateFailure)
			return &ValidateResult{IsValid: false, Message: tokenMessage(failureNotAccessToken)}, nil
		}
		return nil, errUpstream(err)
	}

	var cachedPair wireTokenPair
	if err := json.Unmarshal(cached, &cachedPair); err != nil {
		s.inc(metrics.MetricValidateFailure)
		return &ValidateResult{IsValid: false, Message: tokenMessage(failureNotAccessToken)}, nil
	}

	if claims.Role == token.RoleRefresh || cachedPair.AccessToken != accessToken {
		s.inc(metrics.MetricValidateFailure)
		return &ValidateResult{IsValid: false, Message: tokenMessage(failureNotAccessToken)}, nil
	}

	u, err := s.store.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.inc(metrics.MetricValidateFailure)
			return &ValidateResult{IsValid: false, Message: tokenMessage(failureNotAccessToken)}, nil
		}
		return nil, errUpstream(err)
	}

	s.inc(metrics.MetricValidateSuccess)
	return &ValidateResult{IsValid: true, IsVerified: u.IsVerified, Message: "valid"}, nil
}

// wireTokenPair is the JSON shape stored under jwt:<email>.
type wireTokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Service) issueAndCachePair(ctx context.Context, email, subject string) (*TokenPair, error) {
	access, err := s.codec.SignAccess(email, subject)
	if err != nil {
		return nil, errUpstream(err)
	}
	refresh, err := s.codec.SignRefresh(email, subject)
	if err != nil {
		return nil, errUpstream(err)
	}

	encoded, err := json.Marshal(wireTokenPair{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return nil, errUpstream(err)
	}

	if err := s.cache.Put(ctx, cache.JWTKey(email), encoded, s.config.RefreshTTL); err != nil {
		return nil, errUpstream(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func classifyCodecError(err error) tokenFailureKind {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return failureExpired
	case errors.Is(err, token.ErrSignatureInvalid):
		return failureSignatureInvalid
	default:
		return failureMalformed
	}
}

func errUpstream(err error) error {
	return errors.Join(ErrUpstreamUnavailable, err)
}
