package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/snowflake"
)

type enqueueRequest struct {
	Transition string            `json:"transition"`
	Args       []json.RawMessage `json:"args"`
}

func (r *Router) GetEvent(c *gin.Context) {
	id := c.Param("id")
	if _, err := snowflake.ParseID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ev, err := r.service.Get(c.Request.Context(), id)
	if err != nil {
		r.logger.Error("get_event_failed", zap.Error(err), zap.String("event_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	r.writeEvent(c, http.StatusOK, ev)
}

func (r *Router) ListTransactionEvents(c *gin.Context) {
	items, err := r.service.ListTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	events := make([]json.RawMessage, 0, len(items))
	for _, ev := range items {
		raw, err := ev.Dump()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		events = append(events, raw)
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (r *Router) CreateTransaction(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"transaction_id": r.service.NewTransaction()})
}

func (r *Router) EnqueueEvent(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Transition = strings.TrimSpace(req.Transition)
	if req.Transition == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transition is required"})
		return
	}

	args := make([]any, len(req.Args))
	for i, a := range req.Args {
		args[i] = a
	}

	ev, err := r.service.Enqueue(c.Request.Context(), c.Param("id"), req.Transition, args...)
	if err != nil {
		if errors.Is(err, event.ErrMissingTransactionID) || errors.Is(err, event.ErrEncode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		r.logger.Error("enqueue_event_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	r.writeEvent(c, http.StatusCreated, ev)
}

func (r *Router) ListTransitions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transitions": r.registry.Names()})
}

func (r *Router) writeEvent(c *gin.Context, status int, ev *event.Event) {
	raw, err := ev.Dump()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}
