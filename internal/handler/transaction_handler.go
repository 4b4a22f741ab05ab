package handler

import (
	"strconv"
	"time"

	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	transactionSvc *service.TransactionService
}

func NewTransactionHandler(transactionSvc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionSvc: transactionSvc}
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		response.ParamError(c, "金额格式错误: "+raw)
		return decimal.Zero, false
	}
	return amount, true
}

type transferRequest struct {
	SourceAccount string `json:"source_account" binding:"required"`
	TargetAccount string `json:"target_account" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description"`
}

// Transfer 转账
// POST /api/v1/transactions/transfer
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	txn, err := h.transactionSvc.Transfer(c.Request.Context(), req.SourceAccount, req.TargetAccount, amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

type singleAccountRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description"`
}

// Deposit 存款
// POST /api/v1/transactions/deposit
func (h *TransactionHandler) Deposit(c *gin.Context) {
	var req singleAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	txn, err := h.transactionSvc.Deposit(c.Request.Context(), req.AccountNumber, amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

// Withdraw 取款
// POST /api/v1/transactions/withdraw
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req singleAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	txn, err := h.transactionSvc.Withdraw(c.Request.Context(), req.AccountNumber, amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

type scheduleRequest struct {
	Type          string `json:"type" binding:"required"`
	SourceAccount string `json:"source_account" binding:"required"`
	TargetAccount string `json:"target_account"`
	Amount        string `json:"amount" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"` // RFC3339
	Description   string `json:"description"`
}

// Schedule 创建预约交易
// POST /api/v1/transactions/schedule
func (h *TransactionHandler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	scheduledDate, err := time.Parse(time.RFC3339, req.ScheduledDate)
	if err != nil {
		response.ParamError(c, "预约时间格式错误，应为 RFC3339: "+req.ScheduledDate)
		return
	}

	txn, err := h.transactionSvc.ScheduleFuture(c.Request.Context(), req.Type, req.SourceAccount, req.TargetAccount, amount, scheduledDate, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

type reverseRequest struct {
	Reason string `json:"reason"`
}

// Reverse 冲正
// POST /api/v1/transactions/:transactionID/reverse
func (h *TransactionHandler) Reverse(c *gin.Context) {
	var req reverseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	txn, err := h.transactionSvc.Reverse(c.Request.Context(), c.Param("transactionID"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

// GetTransaction 查询单笔流水
// GET /api/v1/transactions/:transactionID
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.transactionSvc.GetByID(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, txn)
}

// History 账户流水
// GET /api/v1/accounts/:accountNumber/transactions?limit=50
func (h *TransactionHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.ParamError(c, "limit 格式错误: "+raw)
			return
		}
		limit = parsed
	}

	transactions, err := h.transactionSvc.HistoryForAccount(c.Request.Context(), c.Param("accountNumber"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, transactions)
}

// ListPending 未终态的交易
// GET /api/v1/transactions/pending
func (h *TransactionHandler) ListPending(c *gin.Context) {
	transactions, err := h.transactionSvc.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, transactions)
}

// ListScheduled 全部待执行的预约交易
// GET /api/v1/transactions/scheduled
func (h *TransactionHandler) ListScheduled(c *gin.Context) {
	transactions, err := h.transactionSvc.ListScheduled(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, transactions)
}
