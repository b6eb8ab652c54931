package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/events"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

const maxBodyBytes = 8 << 20

const refreshPath = "/auth/refresh/"

// call describes one logical API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	// noRefresh skips the 401 refresh step; login and registration use it
	// because their 401 means bad credentials, not an expired session.
	noRefresh bool
}

type reply struct {
	status int
	body   []byte
}

// do runs c through the interceptor chain and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, cl call) (json.RawMessage, error) {
	var payload []byte
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", cl.method, cl.path, err)
		}
		payload = b
	}

	token, err := c.store.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}

	rep, err := c.send(ctx, cl, payload, token)
	if err != nil {
		return nil, err
	}

	if rep.status == http.StatusUnauthorized && !cl.noRefresh {
		// The single retry: at most one refresh and one replay per call.
		refreshToken, err := c.store.RefreshToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("read refresh token: %w", err)
		}
		if refreshToken != "" {
			access, err := c.refreshAccess(ctx, token, refreshToken)
			if err != nil {
				return nil, err
			}
			rep, err = c.send(ctx, cl, payload, access)
			if err != nil {
				return nil, err
			}
		}
	}

	if rep.status < 200 || rep.status > 299 {
		return nil, responseError(rep)
	}
	return json.RawMessage(rep.body), nil
}

// send performs a single HTTP exchange through the limiter and breaker.
// Only failures to obtain a response count against the breaker.
func (c *Client) send(ctx context.Context, cl call, payload []byte, token string) (*reply, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewTransportError(err)
		}
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := c.newRequest(ctx, cl.method, cl.path, cl.query, payload)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return c.exchange(req)
	})
	if err != nil {
		if ctx.Err() == nil {
			c.observe(false)
		}
		c.metrics.RecordRequest(cl.path, cl.method, 0, time.Since(start))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Debug("request short-circuited", zap.String("path", cl.path), zap.Error(err))
		} else {
			c.logger.Warn("request failed", zap.String("method", cl.method), zap.String("path", cl.path), zap.Error(err))
		}
		return nil, apperrors.NewTransportError(err)
	}

	rep := out.(*reply)
	c.observe(true)
	c.metrics.RecordRequest(cl.path, cl.method, rep.status, time.Since(start))
	c.logger.Debug("request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", rep.status),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, nil
}

// refreshAccess exchanges the refresh token for a new access token.
// Concurrent callers holding the same refresh token share one request; a
// caller whose token was already replaced reuses the stored one. The shared
// request is detached from any single caller's cancellation, and a caller
// that gives up keeps its session.
func (c *Client) refreshAccess(ctx context.Context, staleAccess, refreshToken string) (string, error) {
	ch := c.refreshes.DoChan(refreshToken, func() (interface{}, error) {
		rctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, c.timeout)
			defer cancel()
		}

		current, err := c.store.AccessToken(rctx)
		if err != nil {
			return nil, err
		}
		if current != "" && current != staleAccess {
			return current, nil
		}

		access, err := c.postRefresh(rctx, refreshToken)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.metrics.RecordRefresh("aborted")
				c.logger.Info("token refresh aborted, keeping session", zap.Error(err))
				return nil, err
			}
			c.metrics.RecordRefresh("failure")
			c.logger.Info("token refresh failed, clearing session", zap.Error(err))
			if clearErr := c.store.ClearTokens(rctx); clearErr != nil {
				c.logger.Warn("clear tokens", zap.Error(clearErr))
			}
			_ = c.dispatcher.Publish(rctx, events.New(events.EventSessionExpired, events.SessionPayload{
				LoginPath: LoginPath,
				Reason:    err.Error(),
			}))
			return nil, err
		}
		if err := c.store.SetAccessToken(rctx, access); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		c.metrics.RecordRefresh("success")
		_ = c.dispatcher.Publish(rctx, events.New(events.EventTokenRefreshed, events.SessionPayload{}))
		return access, nil
	})

	select {
	case <-ctx.Done():
		return "", apperrors.NewTransportError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight token refresh")
		}
		return res.Val.(string), nil
	}
}

// postRefresh calls the refresh endpoint directly, bypassing do.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, refreshPath, nil, payload)
	if err != nil {
		return "", err
	}
	rep, err := c.exchange(req)
	if err != nil {
		return "", apperrors.NewTransportError(err)
	}
	if rep.status < 200 || rep.status > 299 {
		return "", responseError(rep)
	}
	var out domain.RefreshResponse
	if err := json.Unmarshal(rep.body, &out); err != nil || out.Access == "" {
		return "", apperrors.NewResponseError(rep.status, map[string]any{"error": "refresh response has no access token"}, nil)
	}
	return out.Access, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}

func (c *Client) exchange(req *http.Request) (*reply, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &reply{status: resp.StatusCode, body: body}, nil
}

func (c *Client) observe(reached bool) {
	if o, ok := c.monitor.(Observer); ok {
		o.Observe(reached)
	}
}

// responseError normalises a non-2xx reply, keeping the server's JSON object
// as the payload when there is one.
func responseError(rep *reply) *apperrors.APIError {
	var payload map[string]any
	if err := json.Unmarshal(rep.body, &payload); err != nil {
		payload = nil
	}
	return apperrors.NewResponseError(rep.status, payload, rep.body)
}

func decode[T any](raw json.RawMessage, what string) (T, error) {
	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}
