package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"svomo/internal/domain"
	"svomo/internal/repository"
	"svomo/internal/service"
)

// WizardHandler expone la maquina de estados del wizard sobre HTTP.
type WizardHandler struct {
	wizard  *service.WizardService
	store   repository.WizardSessionStore
	tokens  *service.SessionTokenService
	limiter service.StartLimiter
	locks   *sessionLocks
	logger  *zap.Logger
}

func NewWizardHandler(
	wizard *service.WizardService,
	store repository.WizardSessionStore,
	tokens *service.SessionTokenService,
	limiter service.StartLimiter,
	logger *zap.Logger,
) *WizardHandler {
	return &WizardHandler{
		wizard:  wizard,
		store:   store,
		tokens:  tokens,
		limiter: limiter,
		locks:   newSessionLocks(),
		logger:  logger,
	}
}

// Start maneja POST /wizard.
func (h *WizardHandler) Start(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		h.logger.Warn("wizard start rate limited", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many wizard sessions, try again later"})
		return
	}
	ctx := c.Request.Context()
	session := h.wizard.Start(ctx)

	if err := h.store.Save(ctx, session); err != nil {
		h.logger.Error("save wizard session failed", zap.String("session_id", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start wizard"})
		return
	}
	token, err := h.tokens.Issue(session.ID)
	if err != nil {
		h.logger.Error("issue session token failed", zap.String("session_id", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start wizard"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "view": h.wizard.View(session)})
}

// Get maneja GET /wizard.
func (h *WizardHandler) Get(c *gin.Context) {
	h.withSession(c, false, func(ctx context.Context, session *domain.WizardSession) error {
		return nil
	})
}

// Answer maneja POST /wizard/answer.
func (h *WizardHandler) Answer(c *gin.Context) {
	var req struct {
		Option string `json:"option" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	h.withSession(c, true, func(ctx context.Context, session *domain.WizardSession) error {
		return h.wizard.SubmitAnswer(session, req.Option)
	})
}

// Advance maneja POST /wizard/advance.
func (h *WizardHandler) Advance(c *gin.Context) {
	h.withSession(c, true, func(ctx context.Context, session *domain.WizardSession) error {
		return h.wizard.Advance(ctx, session)
	})
}

// Retreat maneja POST /wizard/retreat.
func (h *WizardHandler) Retreat(c *gin.Context) {
	h.withSession(c, true, func(ctx context.Context, session *domain.WizardSession) error {
		return h.wizard.Retreat(session)
	})
}

// Restart maneja POST /wizard/restart.
func (h *WizardHandler) Restart(c *gin.Context) {
	h.withSession(c, true, func(ctx context.Context, session *domain.WizardSession) error {
		h.wizard.Restart(ctx, session)
		return nil
	})
}

// withSession carga la sesion bajo su lock, aplica fn y si save es true la persiste.
func (h *WizardHandler) withSession(c *gin.Context, save bool, fn func(ctx context.Context, session *domain.WizardSession) error) {
	sessionID, ok := GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	unlock := h.locks.lock(sessionID)
	defer unlock()

	ctx := c.Request.Context()
	session, err := h.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("load wizard session failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	if err := fn(ctx, session); err != nil {
		status := wizardErrorStatus(err)
		h.logger.Warn("wizard input rejected", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error(), "view": h.wizard.View(session)})
		return
	}

	if save {
		if err := h.store.Save(ctx, session); err != nil {
			h.logger.Error("save wizard session failed", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save session"})
			return
		}
	}
	c.JSON(http.StatusOK, h.wizard.View(session))
}

func wizardErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrWizardInvalidOption), errors.Is(err, service.ErrWizardAnswerRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWizardAtStart), errors.Is(err, service.ErrWizardInvalidStage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
