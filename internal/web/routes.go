package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	attendanceHandler := handlers.NewAttendanceHandler(s.engine, s.stores.Ledger, nil)
	studentsHandler := handlers.NewStudentsHandler(s.stores.Roster, s.config.Extractor.Dim, s.onRegister)
	examsHandler := handlers.NewExamsHandler(s.stores.Exams, attendance.NewExamResolver(s.stores.Exams, nil))
	captureHandler := handlers.NewCaptureHandler(s.extractor)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Attendance
		r.Post("/attendance/mark", attendanceHandler.Mark)
		r.Get("/attendance/summary", attendanceHandler.Summary)
		r.Get("/attendance/today", attendanceHandler.Today)

		// Roster
		r.Post("/students", studentsHandler.Register)
		r.Get("/students", studentsHandler.List)
		r.Put("/students/{id}/encoding", studentsHandler.UpdateEncoding)

		// Exams
		r.Post("/exams", examsHandler.Create)
		r.Get("/exams/today", examsHandler.Today)

		// Capture (image -> face encoding via the extractor)
		r.Post("/capture", captureHandler.Capture)
	})
}
