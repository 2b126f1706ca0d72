package handler

import (
	"github.com/gofiber/fiber/v2"

	"studentapi/internal/config"
	"studentapi/internal/service"
)

// RegisterRoutes attaches the student API routes to app.
func RegisterRoutes(app *fiber.App, svc service.StudentService, upload config.UploadConfig) {
	app.Get("/", Root())
	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())

	students := app.Group("/students")
	students.Get("/", ListStudents(svc))
	students.Post("/", CreateStudent(svc, upload))
	students.Get("/:id", GetStudent(svc))
	students.Put("/:id", UpdateStudent(svc))
	students.Delete("/:id", DeleteStudent(svc))
	students.Get("/:id/file", StudentFile(svc))
}
