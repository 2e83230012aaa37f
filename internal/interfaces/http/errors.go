package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/field-expense/internal/application/service"
	"github.com/garyjia/field-expense/internal/domain/workflow"
)

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

// respondError maps service errors onto HTTP statuses
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	var submission *service.SubmissionError
	switch {
	case errors.As(err, &submission):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   "submission rejected",
			Data: SubmissionErrorResponse{
				Errors: submission.Messages(),
				Issues: submission.Issues,
			},
		})
	case errors.Is(err, service.ErrEntryWindowClosed), errors.Is(err, service.ErrSelfApproval):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrExpenseNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrInvalidImageKind),
		errors.Is(err, workflow.ErrGuardFailed):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "operation", op, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to " + op})
	}
}
