// internal/http/handler/chat.go
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/validation"
	"support-chatbot/internal/http/dto"
	"support-chatbot/internal/http/middleware"
	"support-chatbot/internal/models"
)

const maxBodyBytes = 64 << 10

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message string, customer models.CustomerContext) models.FormattedResponse
}

type ChatHandler struct {
	processor MessageProcessor
	logger    logger.Logger
}

func NewChatHandler(processor MessageProcessor, log logger.Logger) *ChatHandler {
	return &ChatHandler{processor: processor, logger: logger.ForComponent(log, "chat_handler")}
}

// PostMessage runs one customer message through the pipeline. The pipeline
// never fails outward, so every valid request gets a 200.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.NewInputParsingError(err), nil)
		return
	}

	_, result, err := validation.DecodeAndValidate(raw, validation.MessageInputSchema)
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.NewInputParsingError(err), nil)
		return
	}
	if !result.Valid {
		writeError(c, http.StatusBadRequest, errors.NewInvalidRequestError(result.Summary()), result.GetErrorMessages())
		return
	}

	var req dto.MessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(c, http.StatusBadRequest, errors.NewInputParsingError(err), nil)
		return
	}
	if req.Customer.Channel == "" {
		req.Customer.Channel = "web"
	}

	reply := h.processor.ProcessMessage(c.Request.Context(), req.Message, req.Customer)

	c.JSON(http.StatusOK, dto.MessageResponse{
		RequestID:      middleware.RequestIDFrom(c),
		ConversationID: req.Customer.ConversationID,
		Reply:          reply,
	})
}

func writeError(c *gin.Context, status int, err *errors.StandardError, details []string) {
	c.JSON(status, dto.ErrorResponse{
		Code:    string(err.Code),
		Message: err.Message,
		Details: details,
	})
}
