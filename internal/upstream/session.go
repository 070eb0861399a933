package upstream

import (
	"context"
	"net/http"
	"strings"
)

// ProbeSession asks the backend whether the forwarded session cookie still
// identifies a live session. A backend rejection is a negative answer, not
// an error; only transport-level failures surface as errors.
func (c *Client) ProbeSession(ctx context.Context, creds Credentials) (SessionProbe, Renewed, error) {
	res, err := c.call(ctx, "session.probe", http.MethodGet, "/session", nil, nil, creds)
	if err != nil {
		if res != nil && (res.status == http.StatusUnauthorized || res.status == http.StatusForbidden) {
			return SessionProbe{}, res.renewed, nil
		}
		var renewed Renewed
		if res != nil {
			renewed = res.renewed
		}
		return SessionProbe{}, renewed, err
	}

	var payload struct {
		Valid     bool   `json:"valid"`
		SessionID string `json:"sessionId"`
	}
	if err := decodeJSON(res, &payload); err != nil {
		return SessionProbe{}, res.renewed, err
	}

	return SessionProbe{
		Authenticated: payload.Valid,
		SessionID:     strings.TrimSpace(payload.SessionID),
	}, res.renewed, nil
}
