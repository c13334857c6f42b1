package gateway

import (
	"context"
	"encoding/json"

	"github.com/cruxauth/authsvc/broker"
)

// IdentityClient is the gateway-side handle onto the Identity Service,
// implemented over the broker RPC surface. It satisfies Validator for
// the Admission Guard and backs every /auth/* route.
type IdentityClient struct {
	publisher *broker.Publisher
}

func NewIdentityClient(publisher *broker.Publisher) *IdentityClient {
	return &IdentityClient{publisher: publisher}
}

type signUpRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type signUpResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *IdentityClient) SignUp(ctx context.Context, req signUpRequest) (*signUpResponse, error) {
	payload, err := c.publisher.Call(ctx, broker.CommandSignUp, req)
	if err != nil {
		return nil, err
	}
	var out signUpResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *IdentityClient) SignIn(ctx context.Context, req signInRequest) (*tokenPairResponse, error) {
	payload, err := c.publisher.Call(ctx, broker.CommandSignIn, req)
	if err != nil {
		return nil, err
	}
	var out tokenPairResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type refreshResponse struct {
	IsValid      bool   `json:"is_valid"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Message      string `json:"message"`
}

func (c *IdentityClient) RefreshToken(ctx context.Context, token string) (*refreshResponse, error) {
	payload, err := c.publisher.Call(ctx, broker.CommandRefreshToken, struct {
		Token string `json:"token"`
	}{Token: token})
	if err != nil {
		return nil, err
	}
	var out refreshResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type validateResponse struct {
	IsValid    bool   `json:"is_valid"`
	IsVerified bool   `json:"is_verified"`
	Message    string `json:"message"`
}

// ValidateToken satisfies Validator.
func (c *IdentityClient) ValidateToken(ctx context.Context, token string) (bool, bool, string, error) {
	payload, err := c.publisher.Call(ctx, broker.CommandValidateToken, struct {
		Token string `json:"token"`
	}{Token: token})
	if err != nil {
		return false, false, "", err
	}
	var out validateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return false, false, "", err
	}
	return out.IsValid, out.IsVerified, out.Message, nil
}

type verifyUserResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *IdentityClient) VerifyUser(ctx context.Context, key string) (*verifyUserResponse, error) {
	payload, err := c.publisher.Call(ctx, broker.CommandVerifyUser, struct {
		Key string `json:"key"`
	}{Key: key})
	if err != nil {
		return nil, err
	}
	var out verifyUserResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
