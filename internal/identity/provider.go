// Package identity wraps the external identity provider that owns
// authentication principals. The engines only ever create and delete
// principals; everything else about authentication lives upstream.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/config"
)

// NewUser is the principal creation request.
type NewUser struct {
	Email    string
	Password string
	FullName string
}

// Provider creates and deletes authentication principals.
type Provider interface {
	CreateUser(ctx context.Context, u NewUser) (string, error)
	DeleteUser(ctx context.Context, id string) error
}

// HTTPProvider talks to the auth service's admin API.
type HTTPProvider struct {
	client *resty.Client
	log    *zap.Logger
}

// NewHTTPProvider builds the admin API client with service-key auth and
// retries for transient failures.
func NewHTTPProvider(cfg config.IdentityConfig, log *zap.Logger) *HTTPProvider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.ServiceKey)

	return &HTTPProvider{client: client, log: log}
}

type createUserRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

type createUserResponse struct {
	ID string `json:"id"`
}

func (p *HTTPProvider) CreateUser(ctx context.Context, u NewUser) (string, error) {
	var out createUserResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(createUserRequest{
			Email:        u.Email,
			Password:     u.Password,
			EmailConfirm: true,
			UserMetadata: map[string]string{"full_name": u.FullName},
		}).
		SetResult(&out).
		Post("/admin/users")
	if err != nil {
		return "", &apperr.UpstreamError{Service: "identity-provider", Err: err}
	}
	if resp.IsError() {
		return "", fmt.Errorf("identity provider rejected user creation: %s (%s)",
			resp.Status(), resp.String())
	}
	if out.ID == "" {
		return "", fmt.Errorf("identity provider returned no principal id")
	}
	return out.ID, nil
}

func (p *HTTPProvider) DeleteUser(ctx context.Context, id string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Delete("/admin/users/" + id)
	if err != nil {
		return &apperr.UpstreamError{Service: "identity-provider", Err: err}
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return fmt.Errorf("identity provider rejected principal deletion: %s", resp.Status())
	}
	return nil
}
