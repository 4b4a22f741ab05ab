package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corebank/internal/config"
	"corebank/internal/handler"
	"corebank/internal/infrastructure/cache"
	"corebank/internal/infrastructure/database"
	"corebank/internal/infrastructure/lock"
	"corebank/internal/infrastructure/mq"
	"corebank/internal/job"
	"corebank/internal/service"
	"corebank/pkg/idgen"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)
	redisClient := cache.InitRedis(&cfg.Redis)
	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	locker := lock.NewRedisAccountLocker(redisClient)

	accountSvc := service.NewAccountService(db)
	transactionSvc := service.NewTransactionService(db, locker, cfg)
	reportSvc := service.NewReportService(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepJob := job.NewScheduledSweepJob(transactionSvc,
		time.Duration(cfg.Business.SweepIntervalSeconds)*time.Second, cfg.Business.SweepBatchSize)
	interestJob := job.NewInterestJob(transactionSvc, cfg.Business.InterestHour)
	reconciliationJob := job.NewReconciliationJob(transactionSvc, cfg.Business.ReconciliationHour)
	reportJob := job.NewReportJob(reportSvc, cfg.Business.ReportHour)
	outboxJob := job.NewOutboxSenderJob(db, mq.SendMessage,
		5*time.Second, cfg.Business.SweepBatchSize, cfg.Business.MaxRetryCount)

	sweepJob.Start(ctx)
	interestJob.Start(ctx)
	reconciliationJob.Start(ctx)
	reportJob.Start(ctx)
	outboxJob.Start(ctx)

	router := handler.SetupRouter(accountSvc, transactionSvc, reportSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("服务启动: port=%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 优雅退出：先停收新请求，再停后台任务
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到退出信号，开始优雅关闭...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP 服务关闭异常: %v", err)
	}

	sweepJob.Stop()
	interestJob.Stop()
	reconciliationJob.Stop()
	reportJob.Stop()
	outboxJob.Stop()

	log.Println("服务已退出")
}
