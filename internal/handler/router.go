package handler

import (
	"corebank/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter 注册路由
func SetupRouter(accountSvc *service.AccountService, transactionSvc *service.TransactionService, reportSvc *service.ReportService) *gin.Engine {
	router := gin.New()
	router.Use(LoggerMiddleware(), RecoveryMiddleware(), CORSMiddleware(), AuditMiddleware())

	accountHandler := NewAccountHandler(accountSvc)
	transactionHandler := NewTransactionHandler(transactionSvc)
	reportHandler := NewReportHandler(reportSvc)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		customers := v1.Group("/customers")
		{
			customers.POST("", accountHandler.RegisterCustomer)
			customers.GET("/:customerID/accounts", accountHandler.ListCustomerAccounts)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.OpenAccount)
			accounts.GET("/:accountNumber", accountHandler.GetAccount)
			accounts.GET("/:accountNumber/balance", accountHandler.GetBalance)
			accounts.GET("/:accountNumber/transactions", transactionHandler.History)
			accounts.POST("/:accountNumber/freeze", accountHandler.FreezeAccount)
			accounts.POST("/:accountNumber/close", accountHandler.CloseAccount)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("/transfer", transactionHandler.Transfer)
			transactions.POST("/deposit", transactionHandler.Deposit)
			transactions.POST("/withdraw", transactionHandler.Withdraw)
			transactions.POST("/schedule", transactionHandler.Schedule)
			transactions.GET("/pending", transactionHandler.ListPending)
			transactions.GET("/scheduled", transactionHandler.ListScheduled)
			transactions.GET("/:transactionID", transactionHandler.GetTransaction)
			transactions.POST("/:transactionID/reverse", transactionHandler.Reverse)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/weekly", reportHandler.WeeklyReport)
			reports.GET("/monthly", reportHandler.MonthlyReport)
		}
	}

	return router
}
