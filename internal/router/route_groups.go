package router

import (
	"github.com/gin-gonic/gin"

	"lodge_backend/internal/handlers"
)

// SetupPublicAuthRoutes registers the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes registers the token-introspection route.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupUnitRoutes sets up the accommodation unit routes.
func SetupUnitRoutes(authenticatedGroup *gin.RouterGroup, unitHandler *handlers.UnitHandler) {
	unitRoutes := authenticatedGroup.Group("/accommodation-units")
	{
		unitRoutes.POST("", unitHandler.CreateUnit)
		unitRoutes.GET("", unitHandler.GetUnits)
		unitRoutes.GET("/:id", unitHandler.GetUnitByID)
		unitRoutes.PUT("/:id", unitHandler.UpdateUnit)
		unitRoutes.PATCH("/:id", unitHandler.UpdateUnit)
		unitRoutes.DELETE("/:id", unitHandler.DeleteUnit)
	}
}

// SetupClientRoutes sets up the client routes.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.PATCH("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
	}
}

// SetupReservationRoutes sets up the reservation routes. The static
// check_availability segment takes precedence over :id.
func SetupReservationRoutes(authenticatedGroup *gin.RouterGroup, reservationHandler *handlers.ReservationHandler) {
	reservationRoutes := authenticatedGroup.Group("/reservations")
	{
		reservationRoutes.POST("", reservationHandler.CreateReservation)
		reservationRoutes.GET("", reservationHandler.GetReservations)
		reservationRoutes.GET("/check_availability", reservationHandler.CheckAvailability)
		reservationRoutes.GET("/:id", reservationHandler.GetReservationByID)
		reservationRoutes.PUT("/:id", reservationHandler.ReplaceReservation)
		reservationRoutes.PATCH("/:id", reservationHandler.UpdateReservation)
		reservationRoutes.DELETE("/:id", reservationHandler.DeleteReservation)
		reservationRoutes.POST("/:id/payments", reservationHandler.RecordPayment)
	}
}

// SetupTransactionRoutes sets up the ledger transaction routes.
func SetupTransactionRoutes(authenticatedGroup *gin.RouterGroup, transactionHandler *handlers.TransactionHandler) {
	transactionRoutes := authenticatedGroup.Group("/transactions")
	{
		transactionRoutes.POST("", transactionHandler.CreateTransaction)
		transactionRoutes.GET("", transactionHandler.GetTransactions)
		transactionRoutes.GET("/:id", transactionHandler.GetTransactionByID)
		transactionRoutes.PUT("/:id", transactionHandler.UpdateTransaction)
		transactionRoutes.PATCH("/:id", transactionHandler.UpdateTransaction)
		transactionRoutes.DELETE("/:id", transactionHandler.DeleteTransaction)
	}
}

// SetupReportRoutes sets up the read-only report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	{
		reportRoutes.GET("/dashboard", reportHandler.GetDashboardSummary)
		reportRoutes.GET("/financial", reportHandler.GetFinancialReport)
	}
}
