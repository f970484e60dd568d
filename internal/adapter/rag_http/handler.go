package rag_http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"health-rag/internal/domain"
	"health-rag/internal/infra/logger"
	"health-rag/internal/usecase"
)

// ChatRequest is the POST /v1/chat body.
type ChatRequest struct {
	Question string   `json:"question" validate:"required,notblank,max=2000"`
	History  []string `json:"history" validate:"dive,max=20000"`
}

// ContextResponse identifies a source document.
type ContextResponse struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ChatResponse is the POST /v1/chat reply.
type ChatResponse struct {
	Answer    string            `json:"answer"`
	History   []string          `json:"history"`
	Outcome   string            `json:"outcome"`
	Queries   []string          `json:"queries"`
	Contexts  []ContextResponse `json:"contexts"`
	RequestID string            `json:"request_id"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type Handler struct {
	chatUsecase usecase.ChatUsecase
	logger      *slog.Logger
}

func NewHandler(chatUsecase usecase.ChatUsecase, logger *slog.Logger) *Handler {
	return &Handler{
		chatUsecase: chatUsecase,
		logger:      logger,
	}
}

// Register mounts the routes on e and installs the request validator.
func (h *Handler) Register(e *echo.Echo) {
	e.Validator = NewRequestValidator()
	e.POST("/v1/chat", h.Chat)
	e.GET("/healthz", h.Healthz)
}

// Chat answers one question
// (POST /v1/chat)
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Fields: verr.Fields})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}

	out, err := h.chatUsecase.Execute(ctx, usecase.ChatInput{
		Question: req.Question,
		History:  req.History,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question is required"})
		}
		h.logger.ErrorContext(ctx, "chat_request_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "request could not be completed"})
	}

	contexts := make([]ContextResponse, len(out.Contexts))
	for i, ref := range out.Contexts {
		contexts[i] = ContextResponse{Title: ref.Title, URL: ref.URL}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:    out.Answer,
		History:   out.History,
		Outcome:   out.Outcome,
		Queries:   out.Queries,
		Contexts:  contexts,
		RequestID: out.RequestID,
	})
}

// Healthz reports liveness
// (GET /healthz)
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
