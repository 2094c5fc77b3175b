package localarbiter

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/mudler/LocalArbiter/core/turns"
)

// TurnStatus mirrors the turn manager status with durations in seconds.
type TurnStatus struct {
	State          turns.State            `json:"state"`
	CurrentAgent   string                 `json:"current_agent,omitempty"`
	Current        *turns.Turn            `json:"current,omitempty"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	TimeoutSeconds float64                `json:"timeout_seconds"`
	Warning        bool                   `json:"warning"`
	QueueSize      int                    `json:"queue_size"`
	Queue          []turns.QueuedResponse `json:"queue"`
}

// TurnRequest asks for the speaking slot.
type TurnRequest struct {
	AgentID  string         `json:"agent_id"`
	Message  string         `json:"message,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Priority int            `json:"priority"`
}

// RequestTurn returns true when the agent got the turn right away.
func (c *Client) RequestTurn(req TurnRequest) (bool, *TurnStatus, error) {
	var out struct {
		Started bool       `json:"started"`
		Status  TurnStatus `json:"status"`
	}
	if err := c.doRequest(http.MethodPost, "/api/turns/request", req, &out); err != nil {
		return false, nil, err
	}
	return out.Started, &out.Status, nil
}

// ReleaseTurn ends the current turn and returns the next speaker, if any.
func (c *Client) ReleaseTurn() (string, error) {
	var out struct {
		NextAgent string `json:"next_agent"`
	}
	if err := c.doRequest(http.MethodPost, "/api/turns/release", nil, &out); err != nil {
		return "", err
	}
	return out.NextAgent, nil
}

// CancelTurn removes the agent from the turn or from the queue
func (c *Client) CancelTurn(agentID string) (*TurnStatus, error) {
	var status TurnStatus
	path := fmt.Sprintf("/api/turns/cancel/%s", url.PathEscape(agentID))
	if err := c.doRequest(http.MethodPost, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetTurnStatus returns the state of the turn manager
func (c *Client) GetTurnStatus() (*TurnStatus, error) {
	var status TurnStatus
	if err := c.doRequest(http.MethodGet, "/api/turns", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
