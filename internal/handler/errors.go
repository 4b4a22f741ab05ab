package handler

import (
	"errors"

	"corebank/internal/repository"
	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError 服务层错误到业务码的统一映射
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, repository.ErrCustomerNotFound):
		response.BusinessError(c, response.CodeCustomerNotFound, err.Error())
	case errors.Is(err, repository.ErrTransactionNotFound):
		response.BusinessError(c, response.CodeTransactionNotFound, err.Error())
	case errors.Is(err, repository.ErrOptimisticLock):
		response.BusinessError(c, response.CodeConcurrentConflict, err.Error())
	case errors.Is(err, repository.ErrTransactionStatusInvalid),
		errors.Is(err, service.ErrInvalidReversalState),
		errors.Is(err, service.ErrUnsupportedReversalType):
		response.BusinessError(c, response.CodeInvalidTransaction, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeInsufficientFunds, err.Error())
	case errors.Is(err, service.ErrAccountNotActive),
		errors.Is(err, service.ErrCustomerNotActive),
		errors.Is(err, service.ErrAccountClosed):
		response.BusinessError(c, response.CodeAccountNotActive, err.Error())
	case errors.Is(err, service.ErrNonZeroBalance):
		response.BusinessError(c, response.CodeNonZeroBalance, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSameAccountTransfer),
		errors.Is(err, service.ErrMissingTargetAccount),
		errors.Is(err, service.ErrInvalidScheduleDate),
		errors.Is(err, service.ErrUnsupportedScheduledType):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}
