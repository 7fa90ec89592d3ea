package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitConcurrentRequests caps the number of requests processed at once;
// beyond maxConcurrent, requests are rejected with HTTP 429.
//
// We put it in front of launch: each launch may block on child discovery
// for several seconds, and an unbounded pile-up of those is worse than a
// retry.
func LimitConcurrentRequests(maxConcurrent int) gin.HandlerFunc {
	semaphore := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many concurrent requests",
			})
		}
	}
}
