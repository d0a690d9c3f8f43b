package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/pkg/apperror"
)

type AuthHandler struct {
	verifyPinUseCase *authUC.VerifyPinUseCase
}

func NewAuthHandler(verifyPinUC *authUC.VerifyPinUseCase) *AuthHandler {
	return &AuthHandler{verifyPinUseCase: verifyPinUC}
}

func (h *AuthHandler) VerifyPin(c *gin.Context) {
	var req verifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("Malformed request body", err))
		return
	}

	output, err := h.verifyPinUseCase.Execute(c.Request.Context(), authUC.VerifyPinInput{
		Pin:       req.Pin,
		ClientKey: ClientKey(c),
	})
	if err != nil {
		c.Error(err)
		if errors.Is(err, apperror.ErrInternal) {
			// same body as a mismatch; the cause stays in the log
			c.JSON(http.StatusInternalServerError, verifyPinResponse{Success: false})
		}
		return
	}

	c.JSON(http.StatusOK, verifyPinResponse{
		Success:    output.Success,
		RetryAfter: apperror.RetryAfterSeconds(output.RetryAfter),
	})
}
