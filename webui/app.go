package webui

import (
	"errors"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/mudler/LocalArbiter/core/arbiter"
	"github.com/mudler/LocalArbiter/core/turns"
	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/xlog"
)

type (
	App struct {
		config *Config
		*fiber.App
	}
)

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	webapp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	a := &App{
		config: config,
		App:    webapp,
	}

	a.registerRoutes(webapp)

	return a
}

type decideRequest struct {
	types.DecisionRequest
	// Speaker is the agent that produced Message. Empty means the user.
	Speaker string `json:"speaker,omitempty"`
}

type decideResponse struct {
	types.Decision
	DiscussionTurn       int  `json:"discussion_turn"`
	ShouldStopDiscussion bool `json:"should_stop_discussion"`
}

func (a *App) Decide() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := decideRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		req := payload.DecisionRequest
		if req.Message == "" {
			return errorJSONStatus(c, fiber.StatusBadRequest, errors.New("message is required"))
		}

		// Known conversations get their discussion turn from the tracker.
		if req.ConversationID != "" && a.config.Tracker != nil {
			var turn int
			if payload.Speaker == "" {
				a.config.Tracker.AddUserMessage(req.ConversationID, req.Message)
			} else {
				turn = a.config.Tracker.AddAgentMessage(req.ConversationID, payload.Speaker, req.Message)
			}
			if req.DiscussionTurn == 0 {
				req.DiscussionTurn = turn
			}
		}

		decision := a.config.Arbiter.DetermineResponder(c.UserContext(), req)

		return c.JSON(decideResponse{
			Decision:             decision,
			DiscussionTurn:       req.DiscussionTurn,
			ShouldStopDiscussion: a.config.Arbiter.ShouldStopDiscussion(req.DiscussionTurn),
		})
	}
}

func (a *App) AddConversationMessage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			AgentID string `json:"agent_id"`
			Content string `json:"content"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		if a.config.Tracker == nil {
			return errorJSONStatus(c, fiber.StatusNotFound, errors.New("conversation tracking is disabled"))
		}

		id := c.Params("id")
		if payload.AgentID == "" {
			a.config.Tracker.AddUserMessage(id, payload.Content)
		} else {
			a.config.Tracker.AddAgentMessage(id, payload.AgentID, payload.Content)
		}

		turn := a.config.Tracker.DiscussionTurn(id)
		return c.JSON(fiber.Map{
			"discussion_turn":        turn,
			"should_stop_discussion": a.config.Arbiter.ShouldStopDiscussion(turn),
		})
	}
}

func (a *App) GetConversation() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if a.config.Tracker == nil {
			return errorJSONStatus(c, fiber.StatusNotFound, errors.New("conversation tracking is disabled"))
		}
		id := c.Params("id")
		return c.JSON(fiber.Map{
			"discussion_turn": a.config.Tracker.DiscussionTurn(id),
			"messages":        a.config.Tracker.GetConversation(id),
		})
	}
}

func (a *App) ListAgents() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		agents := a.config.Arbiter.Registry().List()
		active := 0
		for _, p := range agents {
			if p.Active {
				active++
			}
		}
		return c.JSON(fiber.Map{
			"agents":      agents,
			"agentCount":  len(agents),
			"activeCount": active,
		})
	}
}

func (a *App) CreateAgent() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		profile := types.NewAgentProfile("", "")
		if err := c.BodyParser(&profile); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}

		if err := a.config.Arbiter.RegisterAgent(profile); err != nil {
			xlog.Info("Error registering agent", "agent", profile.ID, "error", err)
			if errors.Is(err, arbiter.ErrAgentExists) {
				return errorJSONStatus(c, fiber.StatusConflict, err)
			}
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}

		stored, _ := a.config.Arbiter.Registry().Get(profile.ID)
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

func (a *App) DeleteAgent() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := a.config.Arbiter.UnregisterAgent(c.Params("id")); err != nil {
			return agentError(c, err)
		}
		return statusJSONMessage(c, "ok")
	}
}

func (a *App) SetAgentActive() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			Active bool `json:"is_active"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		if err := a.config.Arbiter.SetAgentActive(c.Params("id"), payload.Active); err != nil {
			return agentError(c, err)
		}
		return statusJSONMessage(c, "ok")
	}
}

func (a *App) UpdateAgentStats() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			ResponseTime float64 `json:"response_time"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		id := c.Params("id")
		if err := a.config.Arbiter.UpdateAgentStats(id, payload.ResponseTime); err != nil {
			return agentError(c, err)
		}
		profile, _ := a.config.Arbiter.Registry().Get(id)
		return c.JSON(profile)
	}
}

func (a *App) RequestTurn() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			AgentID  string         `json:"agent_id"`
			Message  string         `json:"message"`
			Metadata map[string]any `json:"metadata"`
			Priority int            `json:"priority"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		if payload.AgentID == "" {
			return errorJSONStatus(c, fiber.StatusBadRequest, errors.New("agent_id is required"))
		}

		started := a.config.Turns.RequestTurn(payload.AgentID, payload.Message, payload.Metadata, payload.Priority)
		return c.JSON(fiber.Map{
			"started": started,
			"status":  newTurnStatus(a.config.Turns.GetQueueStatus()),
		})
	}
}

func (a *App) ReleaseTurn() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		next := a.config.Turns.ReleaseTurn()
		return c.JSON(fiber.Map{
			"next_agent": next,
			"status":     newTurnStatus(a.config.Turns.GetQueueStatus()),
		})
	}
}

func (a *App) CancelTurn() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if !a.config.Turns.CancelTurn(c.Params("id")) {
			return errorJSONStatus(c, fiber.StatusNotFound, errors.New("agent has no turn to cancel"))
		}
		return c.JSON(newTurnStatus(a.config.Turns.GetQueueStatus()))
	}
}

func (a *App) ForceTurnState() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			State turns.State `json:"state"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		if !a.config.Turns.ForceState(payload.State) {
			return errorJSONStatus(c, fiber.StatusBadRequest, errors.New("state cannot be forced"))
		}
		return c.JSON(newTurnStatus(a.config.Turns.GetQueueStatus()))
	}
}

func (a *App) SetTurnTimeout() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			Seconds float64 `json:"timeout_seconds"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		applied := a.config.Turns.SetTimeout(time.Duration(payload.Seconds * float64(time.Second)))
		return c.JSON(fiber.Map{"timeout_seconds": applied.Seconds()})
	}
}

func (a *App) TurnStatus() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(newTurnStatus(a.config.Turns.GetQueueStatus()))
	}
}

type turnStatus struct {
	State          turns.State            `json:"state"`
	CurrentAgent   string                 `json:"current_agent,omitempty"`
	Current        *turns.Turn            `json:"current,omitempty"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	TimeoutSeconds float64                `json:"timeout_seconds"`
	Warning        bool                   `json:"warning"`
	QueueSize      int                    `json:"queue_size"`
	Queue          []turns.QueuedResponse `json:"queue"`
}

func newTurnStatus(s turns.Status) turnStatus {
	return turnStatus{
		State:          s.State,
		CurrentAgent:   s.CurrentAgent,
		Current:        s.Current,
		ElapsedSeconds: s.Elapsed.Seconds(),
		TimeoutSeconds: s.Timeout.Seconds(),
		Warning:        s.Warning,
		QueueSize:      s.QueueSize,
		Queue:          s.Queue,
	}
}

func (a *App) SuppressionStats() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(a.config.Arbiter.Suppressor().GetStats())
	}
}

func (a *App) SuppressionHistory() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return errorJSONStatus(c, fiber.StatusBadRequest, err)
			}
			limit = n
		}
		return c.JSON(fiber.Map{
			"history": a.config.Arbiter.Suppressor().GetSuppressionHistory(limit),
			"pending": a.config.Arbiter.Suppressor().Pending(),
		})
	}
}

func (a *App) ClearSuppressed() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		cleared := a.config.Arbiter.Suppressor().ClearSuppressed(c.Params("id"))
		return c.JSON(fiber.Map{"cleared": cleared})
	}
}

func (a *App) EmotionalState() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, ok := a.config.Arbiter.Registry().Get(id); !ok {
			return agentError(c, arbiter.ErrAgentNotFound)
		}
		state, ok := a.config.Arbiter.States().GetState(id)
		return c.JSON(fiber.Map{
			"agent_id": id,
			"known":    ok,
			"state":    state,
		})
	}
}

func (a *App) DetectEmotions() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			Message string `json:"message"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONStatus(c, fiber.StatusBadRequest, err)
		}
		return c.JSON(a.config.Arbiter.Detector().DetectEmotions(payload.Message))
	}
}

func (a *App) GetSettingsMeta() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(a.config.Settings.FieldGroups())
	}
}

func agentError(c *fiber.Ctx, err error) error {
	if errors.Is(err, arbiter.ErrAgentNotFound) {
		return errorJSONStatus(c, fiber.StatusNotFound, err)
	}
	return errorJSONMessage(c, err.Error())
}

func errorJSONMessage(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

func errorJSONStatus(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func statusJSONMessage(c *fiber.Ctx, message string) error {
	return c.JSON(struct {
		Status string `json:"status"`
	}{Status: message})
}
