package localarbiter

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/mudler/LocalArbiter/core/types"
)

// AgentList is the answer of ListAgents.
type AgentList struct {
	Agents      []types.AgentProfile `json:"agents"`
	AgentCount  int                  `json:"agentCount"`
	ActiveCount int                  `json:"activeCount"`
}

// ListAgents returns every registered agent
func (c *Client) ListAgents() (*AgentList, error) {
	var list AgentList
	if err := c.doRequest(http.MethodGet, "/api/agents", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RegisterAgent adds a new agent and returns it as stored by the server.
func (c *Client) RegisterAgent(profile types.AgentProfile) (*types.AgentProfile, error) {
	var stored types.AgentProfile
	if err := c.doRequest(http.MethodPost, "/api/agents", profile, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// UnregisterAgent removes an agent
func (c *Client) UnregisterAgent(id string) error {
	return c.doRequest(http.MethodDelete, agentPath(id, ""), nil, nil)
}

// SetAgentActive pauses or resumes an agent
func (c *Client) SetAgentActive(id string, active bool) error {
	body := map[string]bool{"is_active": active}
	return c.doRequest(http.MethodPut, agentPath(id, "/active"), body, nil)
}

// UpdateAgentStats records that the agent answered, taking responseTime
// seconds.
func (c *Client) UpdateAgentStats(id string, responseTime float64) (*types.AgentProfile, error) {
	var profile types.AgentProfile
	body := map[string]float64{"response_time": responseTime}
	if err := c.doRequest(http.MethodPut, agentPath(id, "/stats"), body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func agentPath(id, suffix string) string {
	return fmt.Sprintf("/api/agents/%s%s", url.PathEscape(id), suffix)
}
