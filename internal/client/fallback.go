package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/events"
	"github.com/spec-kit/aidtrace/internal/offline"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// isOffline reports whether err is a failure the offline policy may absorb:
// no response was received and the monitor agrees the API is unreachable.
func (c *Client) isOffline(err error) bool {
	if !apperrors.IsKind(err, apperrors.KindTransport) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !c.monitor.Online()
}

func cacheKey(op string, query url.Values) string {
	if len(query) == 0 {
		return op
	}
	return op + "?" + query.Encode()
}

// cachedGet performs a GET whose successful body is cached under op. While
// offline it serves the cached body, or fallback when nothing is cached.
func (c *Client) cachedGet(ctx context.Context, op, path string, query url.Values, fallback json.RawMessage) (json.RawMessage, error) {
	key := cacheKey(op, query)
	raw, err := c.do(ctx, call{method: http.MethodGet, path: path, query: query})
	if err == nil {
		if putErr := c.cache.Put(ctx, key, raw); putErr != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(putErr))
		}
		return raw, nil
	}
	if !c.isOffline(err) {
		return nil, err
	}

	c.metrics.RecordFallback(op)
	cached, cacheErr := c.cache.Get(ctx, key)
	if cacheErr == nil {
		c.logger.Info("serving cached response while offline", zap.String("operation", op))
		return cached, nil
	}
	if !errors.Is(cacheErr, offline.ErrCacheMiss) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(cacheErr))
	}
	c.logger.Info("serving default response while offline", zap.String("operation", op))
	return fallback, nil
}

// defaultGet performs a GET that resolves to fallback while offline.
func (c *Client) defaultGet(ctx context.Context, op, path string, fallback json.RawMessage) (json.RawMessage, error) {
	raw, err := c.do(ctx, call{method: http.MethodGet, path: path})
	if err == nil {
		return raw, nil
	}
	if !c.isOffline(err) {
		return nil, err
	}
	c.metrics.RecordFallback(op)
	c.logger.Info("serving default response while offline", zap.String("operation", op))
	return fallback, nil
}

// queuedWrite issues a mutation. While offline the action is queued for
// replay and a placeholder echoing data is returned. placeholderID is used as
// the placeholder's id when set; otherwise a temporary id is minted.
func (c *Client) queuedWrite(ctx context.Context, kind domain.ActionKind, cl call, data domain.Record, queued domain.Record, placeholderID string) (domain.Record, error) {
	cl.body = data
	raw, err := c.do(ctx, cl)
	if err == nil {
		return decode[domain.Record](raw, string(kind))
	}
	if !c.isOffline(err) {
		return nil, err
	}

	id := placeholderID
	if id == "" {
		id = offline.NewTempID()
	}
	action := domain.PendingAction{
		ID:        offline.NewActionID(),
		Kind:      kind,
		Payload:   queued.Clone(),
		TempID:    id,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.queue.Enqueue(ctx, action); err != nil {
		return nil, fmt.Errorf("queue offline %s: %w", kind, err)
	}

	c.metrics.RecordFallback(string(kind))
	c.metrics.RecordAction(string(kind), "queued")
	c.logger.Info("queued offline action", zap.String("action_id", action.ID), zap.String("kind", string(kind)))
	_ = c.dispatcher.Publish(ctx, events.New(events.EventActionQueued, events.ActionPayload{
		ActionID: action.ID, Kind: kind, TempID: id,
	}))

	placeholder := data.Clone()
	placeholder["id"] = id
	placeholder["status"] = domain.StatusPendingSync
	return placeholder, nil
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
