package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kirvitchenko/finalProjectCrm/internal/metrics"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/handler"
	customMiddleware "github.com/kirvitchenko/finalProjectCrm/internal/transport/http/middleware"
)

// RouterConfig содержит конфигурацию для роутера
type RouterConfig struct {
	UserHandler       *handler.UserHandler
	TeamHandler       *handler.TeamHandler
	TaskHandler       *handler.TaskHandler
	EvaluationHandler *handler.EvaluationHandler
	MeetingHandler    *handler.MeetingHandler
	StatisticsHandler *handler.StatisticsHandler
	HealthHandler     *handler.HealthHandler

	Authenticator  customMiddleware.Authenticator
	AdminToken     string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewRouter создает и настраивает роутер
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.RequestLogger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(customMiddleware.CORS(cfg.AllowedOrigins))

	// Health check и метрики
	r.Get("/health", cfg.HealthHandler.Check)
	r.Handle("/metrics", cfg.Metrics.Handler())

	// Публичные методы пользователей
	r.Post("/users/register", cfg.UserHandler.Register)
	r.Post("/users/login", cfg.UserHandler.Login)
	r.With(customMiddleware.AdminAuth(cfg.AdminToken)).Post("/users/setIsStaff", cfg.UserHandler.SetIsStaff)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.UserAuth(cfg.Authenticator))

		// Users
		r.Post("/users/logout", cfg.UserHandler.Logout)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.GetUser)
			r.Patch("/", cfg.UserHandler.UpdateUser)
			r.Delete("/", cfg.UserHandler.DeleteUser)
			r.Get("/meetings", cfg.UserHandler.ListMeetings)
			r.Get("/evaluations", cfg.UserHandler.ListEvaluations)
		})

		// Teams
		r.Post("/teams", cfg.TeamHandler.CreateTeam)
		r.Get("/teams", cfg.TeamHandler.ListTeams)
		r.Route("/teams/{teamID}", func(r chi.Router) {
			r.Get("/", cfg.TeamHandler.GetTeam)
			r.Patch("/", cfg.TeamHandler.UpdateTeam)
			r.Delete("/", cfg.TeamHandler.DeleteTeam)
			r.Post("/members", cfg.TeamHandler.AddMember)
			r.Patch("/members/{userID}", cfg.TeamHandler.UpdateMemberRole)
			r.Delete("/members/{userID}", cfg.TeamHandler.RemoveMember)
			r.Get("/tasks", cfg.TeamHandler.ListTasks)
		})

		// Tasks
		r.Post("/tasks", cfg.TaskHandler.CreateTask)
		r.Route("/tasks/{taskID}", func(r chi.Router) {
			r.Get("/", cfg.TaskHandler.GetTask)
			r.Patch("/", cfg.TaskHandler.UpdateTask)
			r.Delete("/", cfg.TaskHandler.DeleteTask)
			r.Post("/comments", cfg.TaskHandler.AddComment)
			r.Get("/comments", cfg.TaskHandler.ListComments)
			r.Put("/evaluation", cfg.EvaluationHandler.RecordEvaluation)
			r.Get("/evaluation", cfg.EvaluationHandler.GetEvaluation)
			r.Delete("/evaluation", cfg.EvaluationHandler.DeleteEvaluation)
		})

		// Meetings
		r.Post("/meetings", cfg.MeetingHandler.ScheduleMeeting)
		r.Route("/meetings/{meetingID}", func(r chi.Router) {
			r.Get("/", cfg.MeetingHandler.GetMeeting)
			r.Patch("/", cfg.MeetingHandler.RescheduleMeeting)
			r.Delete("/", cfg.MeetingHandler.DeleteMeeting)
			r.Post("/participants", cfg.MeetingHandler.AddParticipant)
			r.Delete("/participants/{userID}", cfg.MeetingHandler.RemoveParticipant)
		})

		// Statistics
		r.Get("/statistics", cfg.StatisticsHandler.GetStatistics)
	})

	return r
}
