package client

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/events"
)

// Login authenticates and persists the access token, refresh token and user.
// Bad credentials fail with an auth APIError carrying the server's payload.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login/", body: creds, noRefresh: true})
	if err != nil {
		return nil, err
	}
	resp, err := decode[domain.LoginResponse](raw, "login response")
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveLogin(ctx, resp.Access, resp.Refresh, resp.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	c.logger.Info("logged in", zap.String("username", resp.User.Username), zap.String("role", string(resp.User.Role)))
	_ = c.dispatcher.Publish(ctx, events.New(events.EventSessionEstablished, events.SessionPayload{
		Username: resp.User.Username,
		Role:     resp.User.Role,
	}))
	return &resp, nil
}

// Register creates an account awaiting approval. No session state is stored.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.Record, error) {
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register/", body: reg, noRefresh: true})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "registration")
}

// CreateFieldOfficer registers a field officer under the signed-in user's
// organisation. The password confirmation mirrors the password.
func (c *Client) CreateFieldOfficer(ctx context.Context, reg domain.Registration) (domain.Record, error) {
	user, err := c.store.User(ctx)
	if err != nil {
		return nil, err
	}
	reg.Role = domain.RoleFieldOfficer
	reg.PasswordConfirm = reg.Password
	if user != nil {
		reg.Organisation = user.Organisation
	}
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register/", body: reg})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "field officer")
}

// Logout removes every persisted session key. It makes no network call.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	_ = c.dispatcher.Publish(ctx, events.New(events.EventSessionCleared, events.SessionPayload{LoginPath: LoginPath}))
	return nil
}

// CurrentUser returns the persisted user, or nil when signed out.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	return c.store.User(ctx)
}
