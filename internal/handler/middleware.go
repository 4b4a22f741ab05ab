package handler

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware 请求日志
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("[HTTP] %s %s status=%d cost=%s",
			c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// RecoveryMiddleware panic 兜底
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// CORSMiddleware 跨域
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Acting-User")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// AuditMiddleware 记录资金操作的操作人
// 操作人从 X-Acting-User 头读取，缺省记为 system
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Acting-User")
		if actor == "" {
			actor = "system"
		}
		c.Set("actor", actor)

		c.Next()

		if c.Request.Method != "GET" {
			log.Printf("[Audit] actor=%s method=%s path=%s status=%d",
				actor, c.Request.Method, c.Request.URL.Path, c.Writer.Status())
		}
	}
}
