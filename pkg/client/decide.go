package localarbiter

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/mudler/LocalArbiter/core/suppression"
	"github.com/mudler/LocalArbiter/core/types"
)

// DecideRequest is a message to arbitrate. Speaker is the agent that wrote
// it, empty for the user.
type DecideRequest struct {
	types.DecisionRequest
	Speaker string `json:"speaker,omitempty"`
}

// DecideResponse carries the decision and the discussion state it was
// taken in.
type DecideResponse struct {
	types.Decision
	DiscussionTurn       int  `json:"discussion_turn"`
	ShouldStopDiscussion bool `json:"should_stop_discussion"`
}

// Decide asks which agents should answer a message
func (c *Client) Decide(req DecideRequest) (*DecideResponse, error) {
	var out DecideResponse
	if err := c.doRequest(http.MethodPost, "/api/decide", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuppressionStats returns the suppression counters
func (c *Client) SuppressionStats() (*suppression.Stats, error) {
	var stats suppression.Stats
	if err := c.doRequest(http.MethodGet, "/api/suppression/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SuppressionHistory is the answer of GetSuppressionHistory.
type SuppressionHistory struct {
	History []suppression.Entry              `json:"history"`
	Pending []suppression.SuppressedResponse `json:"pending"`
}

// GetSuppressionHistory returns the latest suppressions, newest first. A
// limit of 0 returns all of them.
func (c *Client) GetSuppressionHistory(limit int) (*SuppressionHistory, error) {
	path := "/api/suppression/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out SuppressionHistory
	if err := c.doRequest(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearSuppressed drops the pending responses of an agent and returns how
// many were dropped.
func (c *Client) ClearSuppressed(agentID string) (int, error) {
	var out struct {
		Cleared int `json:"cleared"`
	}
	path := fmt.Sprintf("/api/suppression/%s", url.PathEscape(agentID))
	if err := c.doRequest(http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}
