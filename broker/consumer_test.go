package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cruxauth/authsvc/cache"
	"github.com/cruxauth/authsvc/identity"
	"github.com/cruxauth/authsvc/internal/audit"
	"github.com/cruxauth/authsvc/password"
	"github.com/cruxauth/authsvc/store"
	"github.com/cruxauth/authsvc/token"
)

type noopMailer struct{}

func (noopMailer) SendVerification(to, key string) {}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte("test-signing-secret"),
		AccessTTL:     12 * time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	auditDispatcher := audit.NewDispatcher(audit.Config{Enabled: false}, audit.NoOpSink{})
	t.Cleanup(auditDispatcher.Close)

	svc := identity.New(store.NewMemoryStore(), cache.NewMemoryCache(), codec, hasher, noopMailer{}, auditDispatcher, identity.Config{})
	return &Consumer{service: svc}
}

func TestDispatchSignUpAndSignIn(t *testing.T) {
	c := newTestConsumer(t)
	ctx := context.Background()

	signUpPayload, _ := json.Marshal(identity.SignUpInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "Str0ng!Pass",
	})
	out, err := c.dispatch(ctx, Request{ID: "1", Command: CommandSignUp, Payload: signUpPayload})
	if err != nil {
		t.Fatalf("dispatch sign-up: %v", err)
	}
	var signUpResult identity.SignUpResult
	if err := json.Unmarshal(out, &signUpResult); err != nil {
		t.Fatalf("unmarshal sign-up result: %v", err)
	}
	if signUpResult.Status == "" {
		t.Fatal("expected a non-empty sign-up status")
	}

	signInPayload, _ := json.Marshal(identity.SignInInput{Email: "ada@example.com", Password: "Str0ng!Pass"})
	out, err = c.dispatch(ctx, Request{ID: "2", Command: CommandSignIn, Payload: signInPayload})
	if err != nil {
		t.Fatalf("dispatch sign-in: %v", err)
	}
	var pair identity.TokenPair
	if err := json.Unmarshal(out, &pair); err != nil {
		t.Fatalf("unmarshal token pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be populated")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	c := newTestConsumer(t)
	_, err := c.dispatch(context.Background(), Request{ID: "1", Command: Command("bogus")})
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestDispatchValidateTokenRejectsMalformedPayload(t *testing.T) {
	c := newTestConsumer(t)
	_, err := c.dispatch(context.Background(), Request{ID: "1", Command: CommandValidateToken, Payload: json.RawMessage(`not-json`)})
	if err == nil {
		t.Fatal("expected a decode error for malformed payload")
	}
}
