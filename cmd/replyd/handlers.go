package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/replyforge/replyforge/autoreply/engine"
	"github.com/replyforge/replyforge/models"
	"github.com/replyforge/replyforge/store"
)

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	if err := s.db.Exec("SELECT 1").Error; err != nil {
		s.logger.Error("healthcheck can't connect to database", "err", err)
		return c.JSON(500, HealthStatus{Status: "error", Message: "can't connect to database"})
	}
	return c.JSON(200, HealthStatus{Status: "ok"})
}

// Creator scoping for every admin and ingest call. Auth is handled upstream;
// the gateway forwards the authenticated creator in this header.
func creatorID(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Request().Header.Get("X-Creator-ID"))
	if id == "" {
		id = strings.TrimSpace(c.QueryParam("creator"))
	}
	if id == "" {
		return "", &echo.HTTPError{Code: 400, Message: "missing creator identifier"}
	}
	return id, nil
}

func parseRuleID(c echo.Context) (uint, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, &echo.HTTPError{Code: 400, Message: fmt.Sprintf("invalid rule id: %s", err)}
	}
	return uint(v), nil
}

type commentEventRequest struct {
	CreatorID string              `json:"creatorId"`
	Event     engine.CommentEvent `json:"event"`
}

// Ingest endpoint for the platform poller/webhook receiver. Each event is
// processed in its own goroutine; the handler acknowledges as soon as the
// event is handed off.
func (s *Server) handleCommentEvent(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleCommentEvent")
	defer span.End()

	var req commentEventRequest
	if err := c.Bind(&req); err != nil {
		return &echo.HTTPError{Code: 400, Message: fmt.Sprintf("invalid comment event: %s", err)}
	}
	if req.CreatorID == "" {
		cid, err := creatorID(c)
		if err != nil {
			return err
		}
		req.CreatorID = cid
	}
	evt := req.Event
	if evt.Platform == "" || evt.CommentID == "" {
		return &echo.HTTPError{Code: 400, Message: "comment event requires platform and commentId"}
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	span.SetAttributes(
		attribute.String("platform", string(evt.Platform)),
		attribute.String("commentID", evt.CommentID),
	)
	commentsReceived.Inc()

	go func() {
		// detach from the request context; processing outlives the response
		ctx := context.WithoutCancel(ctx)
		if err := s.engine.ProcessComment(ctx, req.CreatorID, &evt); err != nil {
			s.logger.Error("comment processing failed", "creatorID", req.CreatorID, "commentID", evt.CommentID, "err", err)
		}
	}()

	return c.JSON(202, map[string]any{"status": "accepted"})
}

func (s *Server) handleCreateRule(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	var rule models.Rule
	if err := c.Bind(&rule); err != nil {
		return &echo.HTTPError{Code: 400, Message: fmt.Sprintf("invalid rule: %s", err)}
	}
	rule.ID = 0
	rule.CreatorID = cid
	if err := s.store.CreateRule(c.Request().Context(), &rule); err != nil {
		if errors.Is(err, models.ErrInvalidRule) {
			return &echo.HTTPError{Code: 400, Message: err.Error()}
		}
		return err
	}
	return c.JSON(201, rule)
}

func (s *Server) handleListRules(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	rules, err := s.store.ListRules(c.Request().Context(), cid)
	if err != nil {
		return err
	}
	return c.JSON(200, rules)
}

func (s *Server) handleGetRule(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	id, err := parseRuleID(c)
	if err != nil {
		return err
	}
	rule, err := s.store.GetRule(c.Request().Context(), cid, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &echo.HTTPError{Code: 404, Message: "rule not found"}
	} else if err != nil {
		return err
	}
	return c.JSON(200, rule)
}

func (s *Server) handleUpdateRule(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	id, err := parseRuleID(c)
	if err != nil {
		return err
	}
	var rule models.Rule
	if err := c.Bind(&rule); err != nil {
		return &echo.HTTPError{Code: 400, Message: fmt.Sprintf("invalid rule: %s", err)}
	}
	rule.ID = id
	rule.CreatorID = cid
	err = s.store.UpdateRule(c.Request().Context(), &rule)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &echo.HTTPError{Code: 404, Message: "rule not found"}
	} else if errors.Is(err, models.ErrInvalidRule) {
		return &echo.HTTPError{Code: 400, Message: err.Error()}
	} else if err != nil {
		return err
	}
	return c.JSON(200, rule)
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	id, err := parseRuleID(c)
	if err != nil {
		return err
	}
	err = s.store.DeleteRule(c.Request().Context(), cid, id)
	if errors.Is(err, store.ErrNotFound) {
		return &echo.HTTPError{Code: 404, Message: "rule not found"}
	} else if err != nil {
		return err
	}
	return c.NoContent(204)
}

func (s *Server) handleToggleRule(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	id, err := parseRuleID(c)
	if err != nil {
		return err
	}
	active, err := s.store.ToggleRule(c.Request().Context(), cid, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &echo.HTTPError{Code: 404, Message: "rule not found"}
	} else if err != nil {
		return err
	}
	return c.JSON(200, map[string]any{"id": id, "isActive": active})
}

func (s *Server) handleListLogs(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	cursor, limit, err := parseCursorLimit(c)
	if err != nil {
		return err
	}
	logs, err := s.store.ListLogs(c.Request().Context(), cid, cursor, limit)
	if err != nil {
		return err
	}
	var next uint
	if len(logs) > 0 {
		next = logs[len(logs)-1].ID
	}
	return c.JSON(200, map[string]any{"logs": logs, "cursor": next})
}

func (s *Server) handleStats(c echo.Context) error {
	cid, err := creatorID(c)
	if err != nil {
		return err
	}
	loc := time.UTC
	if tz := strings.TrimSpace(c.QueryParam("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return &echo.HTTPError{Code: 400, Message: fmt.Sprintf("invalid value for 'tz': %s", err)}
		}
		loc = l
	}
	stats, err := s.store.Stats(c.Request().Context(), cid, loc)
	if err != nil {
		return err
	}
	return c.JSON(200, stats)
}

func parseCursorLimit(c echo.Context) (uint, int, error) {
	cursor := uint(0)
	if v := strings.TrimSpace(c.QueryParam("cursor")); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, &echo.HTTPError{
				Code:    400,
				Message: fmt.Sprintf("invalid value for 'cursor': %s", err),
			}
		}
		cursor = uint(n)
	}

	limit := 25
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &echo.HTTPError{
				Code:    400,
				Message: fmt.Sprintf("invalid value for 'limit': %s", err),
			}
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}
	if limit < 0 {
		limit = 0
	}
	return cursor, limit, nil
}
