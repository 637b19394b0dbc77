package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConnectionCounter reports the number of live connections on this instance.
type ConnectionCounter interface {
	Count() int
}

type HealthHandler struct {
	connections ConnectionCounter
	storage     string
	broker      string
}

func NewHealthHandler(connections ConnectionCounter, storage, broker string) *HealthHandler {
	return &HealthHandler{
		connections: connections,
		storage:     storage,
		broker:      broker,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     "order-chat",
		"storage":     h.storage,
		"broker":      h.broker,
		"connections": h.connections.Count(),
	})
}
