package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/offline"
)

var _ offline.Replayer = (*Client)(nil)

// Replay re-issues a queued action. It never falls back to the offline
// policy, so a transport failure is reported to the syncer as-is.
func (c *Client) Replay(ctx context.Context, action domain.PendingAction) (domain.Record, error) {
	cl, body, err := replayCall(action)
	if err != nil {
		return nil, err
	}
	cl.body = body
	raw, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, string(action.Kind))
}

func replayCall(action domain.PendingAction) (call, domain.Record, error) {
	switch action.Kind {
	case domain.ActionCreateProject:
		return call{method: http.MethodPost, path: "/projects/"}, action.Payload, nil
	case domain.ActionUpdateProject:
		body := action.Payload.Clone()
		id := fmt.Sprint(body["id"])
		if body["id"] == nil {
			id = action.TempID
		}
		delete(body, "id")
		if id == "" {
			return call{}, nil, fmt.Errorf("update action %s has no project id", action.ID)
		}
		return call{method: http.MethodPut, path: projectPath(id)}, body, nil
	case domain.ActionFundProject:
		return call{method: http.MethodPost, path: "/funding/"}, action.Payload, nil
	case domain.ActionSubmitReport:
		return call{method: http.MethodPost, path: "/reports/"}, action.Payload, nil
	case domain.ActionRecordDistribution:
		return call{method: http.MethodPost, path: "/distributions/"}, action.Payload, nil
	}
	return call{}, nil, fmt.Errorf("unknown action kind %q", action.Kind)
}
