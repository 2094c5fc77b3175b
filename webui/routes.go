package webui

import (
	"crypto/subtle"
	"errors"
	"math/rand"

	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/mudler/LocalArbiter/core/sse"
)

func (app *App) registerRoutes(webapp *fiber.App) {

	if len(app.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(app.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Get("/healthz", func(c *fiber.Ctx) error {
		return statusJSONMessage(c, "ok")
	})

	webapp.Get("/sse/events", func(c *fiber.Ctx) error {
		if app.config.Bus == nil {
			return c.SendStatus(404)
		}

		app.config.Bus.Manager().Handle(c, sse.NewClient(randStringRunes(10)))
		return nil
	})

	webapp.Post("/api/decide", app.Decide())

	webapp.Get("/api/conversations/:id", app.GetConversation())
	webapp.Post("/api/conversations/:id/messages", app.AddConversationMessage())

	webapp.Get("/api/agents", app.ListAgents())
	webapp.Post("/api/agents", app.CreateAgent())
	webapp.Delete("/api/agents/:id", app.DeleteAgent())
	webapp.Put("/api/agents/:id/active", app.SetAgentActive())
	webapp.Put("/api/agents/:id/stats", app.UpdateAgentStats())

	webapp.Get("/api/turns", app.TurnStatus())
	webapp.Post("/api/turns/request", app.RequestTurn())
	webapp.Post("/api/turns/release", app.ReleaseTurn())
	webapp.Post("/api/turns/cancel/:id", app.CancelTurn())
	webapp.Put("/api/turns/state", app.ForceTurnState())
	webapp.Put("/api/turns/timeout", app.SetTurnTimeout())

	webapp.Get("/api/suppression/stats", app.SuppressionStats())
	webapp.Get("/api/suppression/history", app.SuppressionHistory())
	webapp.Delete("/api/suppression/:id", app.ClearSuppressed())

	webapp.Get("/api/emotions/:id", app.EmotionalState())
	webapp.Post("/api/emotions/detect", app.DetectEmotions())

	webapp.Get("/api/meta/settings", app.GetSettingsMeta())
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	bearerLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}
	// x-api-key and the token cookie carry the bare key
	plainLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:x-api-key", "cookie:token"}, "")
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: firstKey(bearerLookup, plainLookup),
		Next:            func(c *fiber.Ctx) bool { return c.Path() == "/healthz" },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(false, apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

// firstKey returns the key of the first lookup that finds one.
func firstKey(lookups ...v2keyauth.KeyLookupFunc) v2keyauth.KeyLookupFunc {
	return func(c *fiber.Ctx) (string, error) {
		for _, lookup := range lookups {
			key, err := lookup(c)
			if err == nil && key != "" {
				return key, nil
			}
		}
		return "", v2keyauth.ErrMissingOrMalformedAPIKey
	}
}

func getApiKeyErrorHandler(opaqueErrors bool, apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next() // if no keys are set up, any error we get here is not an error.
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			if opaqueErrors {
				return ctx.SendStatus(401)
			}
			return errorJSONStatus(ctx, fiber.StatusUnauthorized, err)
		}
		if opaqueErrors {
			return ctx.SendStatus(500)
		}
		return err
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {

	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil // If no keys are setup, accept everything
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}

}
