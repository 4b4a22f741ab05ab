package handler

import (
	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accountSvc *service.AccountService
}

func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

type registerCustomerRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

// RegisterCustomer 登记客户
// POST /api/v1/customers
func (h *AccountHandler) RegisterCustomer(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.accountSvc.RegisterCustomer(c.Request.Context(), req.CustomerID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, customer)
}

type openAccountRequest struct {
	CustomerID     string `json:"customer_id" binding:"required"`
	AccountType    string `json:"account_type" binding:"required"`
	InitialDeposit string `json:"initial_deposit"`
}

// OpenAccount 开户
// POST /api/v1/accounts
func (h *AccountHandler) OpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = decimal.NewFromString(req.InitialDeposit)
		if err != nil {
			response.ParamError(c, "金额格式错误: "+req.InitialDeposit)
			return
		}
	}

	account, err := h.accountSvc.OpenAccount(c.Request.Context(), req.CustomerID, req.AccountType, initialDeposit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, account)
}

// GetAccount 查询账户
// GET /api/v1/accounts/:accountNumber
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accountSvc.GetAccount(c.Request.Context(), c.Param("accountNumber"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, account)
}

// GetBalance 查询余额
// GET /api/v1/accounts/:accountNumber/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	balance, err := h.accountSvc.GetBalance(c.Request.Context(), accountNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"account_number": accountNumber,
		"balance":        balance,
	})
}

// ListCustomerAccounts 查询客户名下账户
// GET /api/v1/customers/:customerID/accounts
func (h *AccountHandler) ListCustomerAccounts(c *gin.Context) {
	accounts, err := h.accountSvc.ListCustomerAccounts(c.Request.Context(), c.Param("customerID"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, accounts)
}

// FreezeAccount 冻结账户
// POST /api/v1/accounts/:accountNumber/freeze
func (h *AccountHandler) FreezeAccount(c *gin.Context) {
	if err := h.accountSvc.Freeze(c.Request.Context(), c.Param("accountNumber")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// CloseAccount 销户
// POST /api/v1/accounts/:accountNumber/close
func (h *AccountHandler) CloseAccount(c *gin.Context) {
	if err := h.accountSvc.Close(c.Request.Context(), c.Param("accountNumber")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
