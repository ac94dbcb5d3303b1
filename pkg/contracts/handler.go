package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Webhook is a server-to-server callback route. It is mounted with Recovery
// and Logging only: no authentication, rate limiting or content-type checks.
type Webhook struct {
	Method string
	Path   string
	Handle httprouter.Handle
}

// WebhookHandler is implemented by handlers that also receive webhooks.
type WebhookHandler interface {
	Webhooks() []Webhook
}

// Handlers lets a service mount several handlers on one router.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}

func (hs Handlers) Webhooks() []Webhook {
	var webhooks []Webhook
	for _, h := range hs {
		if wh, ok := h.(WebhookHandler); ok {
			webhooks = append(webhooks, wh.Webhooks()...)
		}
	}
	return webhooks
}
