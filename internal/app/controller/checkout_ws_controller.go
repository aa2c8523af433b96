package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
)

type CheckoutSocketController struct {
	checkoutService service.CheckoutService
	hub             *ws.Hub
	upgrader        websocket.Upgrader
}

func NewCheckoutSocketController(checkoutService service.CheckoutService, hub *ws.Hub, allowedOrigins []string) *CheckoutSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &CheckoutSocketController{
		checkoutService: checkoutService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Handle streams checkout state changes (countdown expiry, success,
// redirect) to the page
// GET /api/v1/checkout/ws
func (ctrl *CheckoutSocketController) Handle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := sessionID(c)

	st, err := ctrl.checkoutService.State(id)
	if err != nil {
		apperrors.NotFound(c, apperrors.CheckoutNotStarted, "checkout has not been started")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, id)
	client.OnMessage = func(msg ws.ClientMessage) {
		switch msg.Type {
		case "refresh":
			if st, err := ctrl.checkoutService.State(id); err == nil {
				_ = ctrl.hub.SendToSession(id, ws.NewCheckoutMessage(st, time.Now()))
			}
		case "continue":
			// the request context is gone once the connection is hijacked
			if location, err := ctrl.checkoutService.Continue(context.Background(), id); err == nil {
				_ = ctrl.hub.SendToSession(id, gin.H{"type": "checkout_redirect", "redirect_to": location})
			}
		}
	}

	ctrl.push(client, ws.NewCheckoutMessage(st, time.Now()))
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Checkout socket connected", map[string]interface{}{
		"session_id": id,
	})
}

func (ctrl *CheckoutSocketController) push(client *ws.Client, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
