package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/controllers"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s.Repo, s.AppSess)
	deviceCtl := controllers.NewDeviceController(s.Repo)
	slotCtl := controllers.NewTimeSlotController(s.Repo)
	borrowCtl := controllers.NewBorrowRequestController(s)
	handoverCtl := controllers.NewHandoverController(s)
	maintCtl := controllers.NewMaintenanceController(s.Repo)

	authMW := app.AuthRequired(s.AppSess, s.Repo)
	managerMW := app.ManagerOnly()
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// Auth
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/login", s.Login)
		auth.POST("/logout", s.Logout)
		auth.GET("/whoami", authMW, seenMW, s.WhoAmI)
	}

	// ------------------------------
	// User management (admin only)
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers) // ?q=&role=&page=&size=
		users.POST("", uc.CreateUser)
		users.GET("/:id", uc.GetUser)
		users.DELETE("/:id", uc.DeleteUser)
	}

	// ------------------------------
	// Device directory
	// ------------------------------
	devices := r.Group("/api/devices", authMW, seenMW)
	{
		devices.GET("", deviceCtl.ListDevices) // ?q=&status=&borrowable=1
		devices.GET("/:id", deviceCtl.GetDevice)
	}
	devicesAdmin := r.Group("/api/devices", authMW, managerMW)
	{
		devicesAdmin.POST("", deviceCtl.CreateDevice)
		devicesAdmin.PUT("/:id", deviceCtl.UpdateDevice)
		devicesAdmin.DELETE("/:id", deviceCtl.RetireDevice)
	}

	categories := r.Group("/api/device-categories", authMW)
	{
		categories.GET("", deviceCtl.ListCategories)
		categories.POST("", managerMW, deviceCtl.CreateCategory)
	}

	// ------------------------------
	// Time slots
	// ------------------------------
	slots := r.Group("/api/time-slots", authMW)
	{
		slots.GET("", slotCtl.ListTimeSlots)
		slots.POST("", managerMW, slotCtl.CreateTimeSlot)
	}

	// ------------------------------
	// Borrow requests + handovers
	// ------------------------------
	borrows := r.Group("/api/borrow-requests", authMW, seenMW)
	{
		borrows.POST("", borrowCtl.Create)
		borrows.GET("", borrowCtl.List) // ?status=&date=&requesterId=
		borrows.POST("/check-conflicts", borrowCtl.CheckConflicts)
		borrows.GET("/:id", borrowCtl.Get)
		borrows.POST("/:id/submit", borrowCtl.SubmitDraft)
		borrows.POST("/:id/cancel", borrowCtl.Cancel)
		borrows.GET("/:id/handovers", handoverCtl.ListForRequest)

		// approval and handover are staff actions
		borrows.POST("/:id/approve", managerMW, borrowCtl.Approve)
		borrows.POST("/:id/reject", managerMW, borrowCtl.Reject)
		borrows.POST("/:id/issue", managerMW, handoverCtl.Issue)
		borrows.POST("/:id/return", managerMW, handoverCtl.Return)
	}

	// ------------------------------
	// Maintenance (staff)
	// ------------------------------
	maint := r.Group("/api/maintenance", authMW, managerMW)
	{
		maint.GET("", maintCtl.List) // ?open=1
		maint.POST("/:id/complete", maintCtl.Complete)
	}
}
