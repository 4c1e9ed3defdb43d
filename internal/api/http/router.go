package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/api/http/handlers"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Tasks          *handlers.TaskHandler
	Schedule       *handlers.ScheduleHandler
	Performance    *handlers.PerformanceHandler
	Discipline     *handlers.DisciplineHandler
	Alerts         *handlers.AlertHandler
	Verification   *handlers.VerificationHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	// Limiter is optional; nil disables rate limiting.
	Limiter Limiter
	Logger  *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	if cfg.Limiter != nil {
		api.Use(RateLimitMiddleware(cfg.Limiter, cfg.Logger))
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	supervisor := auth.RequireSupervisor()
	admin := auth.RequireAdmin()

	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)
	protected.Get("/auth/me", cfg.Auth.Me)

	departments := protected.Group("/departments")
	departments.Get("/", cfg.Staff.ListDepartments)
	departments.Post("/", admin, cfg.Staff.CreateDepartment)
	departments.Put("/:id", admin, cfg.Staff.UpdateDepartment)

	staff := protected.Group("/staff")
	staff.Get("/me", cfg.Staff.GetSelf)
	staff.Put("/me", cfg.Staff.UpdateSelf)
	staff.Post("/import", admin, cfg.Staff.ImportRoster)
	staff.Get("/", supervisor, cfg.Staff.ListStaff)
	staff.Post("/", admin, cfg.Staff.CreateStaff)
	staff.Get("/:id", supervisor, cfg.Staff.GetStaff)
	staff.Put("/:id", admin, cfg.Staff.UpdateStaff)
	staff.Delete("/:id", admin, cfg.Staff.DeactivateStaff)

	tasks := protected.Group("/tasks")
	tasks.Get("/", cfg.Tasks.ListTasks)
	tasks.Post("/", supervisor, cfg.Tasks.CreateTask)
	tasks.Get("/:id", cfg.Tasks.GetTask)
	tasks.Get("/:id/history", cfg.Tasks.History)
	tasks.Put("/:id", supervisor, cfg.Tasks.UpdateTask)
	tasks.Patch("/:id/status", cfg.Tasks.ChangeStatus)
	tasks.Delete("/:id", supervisor, cfg.Tasks.DeleteTask)

	schedule := protected.Group("/schedule")
	schedule.Get("/export", supervisor, cfg.Schedule.Export)
	schedule.Get("/", cfg.Schedule.ListShifts)
	schedule.Post("/", supervisor, cfg.Schedule.CreateShift)
	schedule.Get("/:id", cfg.Schedule.GetShift)
	schedule.Put("/:id", supervisor, cfg.Schedule.UpdateShift)
	schedule.Delete("/:id", supervisor, cfg.Schedule.DeleteShift)
	schedule.Post("/:id/cancel", supervisor, cfg.Schedule.CancelShift)
	schedule.Post("/:id/check-in", cfg.Schedule.CheckIn)
	schedule.Post("/:id/check-out", cfg.Schedule.CheckOut)

	performance := protected.Group("/performance")
	performance.Post("/evaluate", supervisor, cfg.Performance.Evaluate)
	performance.Get("/export", supervisor, cfg.Performance.Export)
	performance.Get("/staff/:staffId/summary", cfg.Performance.Summary)
	performance.Get("/", cfg.Performance.ListRecords)
	performance.Get("/:id", cfg.Performance.GetRecord)

	warnings := protected.Group("/discipline/warnings")
	warnings.Get("/", cfg.Discipline.ListWarnings)
	warnings.Post("/", supervisor, cfg.Discipline.IssueWarning)
	warnings.Post("/:id/acknowledge", cfg.Discipline.Acknowledge)
	warnings.Post("/:id/revoke", admin, cfg.Discipline.Revoke)

	alerts := protected.Group("/alerts")
	alerts.Get("/unread-count", cfg.Alerts.UnreadCount)
	alerts.Patch("/read-all", cfg.Alerts.MarkAllRead)
	alerts.Get("/", cfg.Alerts.ListAlerts)
	alerts.Post("/", supervisor, cfg.Alerts.CreateAlert)
	alerts.Patch("/:id/read", cfg.Alerts.MarkRead)
	alerts.Delete("/:id", cfg.Alerts.DeleteAlert)

	verification := protected.Group("/verification")
	verification.Post("/", cfg.Verification.Submit)
	verification.Get("/", cfg.Verification.List)
	verification.Get("/:id", cfg.Verification.Get)
	verification.Post("/:id/approve", supervisor, cfg.Verification.Approve)
	verification.Post("/:id/reject", supervisor, cfg.Verification.Reject)

	dashboard := protected.Group("/dashboard")
	dashboard.Get("/admin", supervisor, cfg.Dashboard.Admin)
	dashboard.Get("/me", cfg.Dashboard.Me)
}
