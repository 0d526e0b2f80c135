package middleware

import "github.com/gin-gonic/gin"

// NoIndex keeps crawlers away from the API.
func NoIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", "noindex, nofollow")
		c.Next()
	}
}
