package handler

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"studentapi/internal/config"
	"studentapi/internal/model"
	"studentapi/internal/service"
)

// ListStudents godoc
// @Summary List students
// @Tags students
// @Produce json
// @Success 200 {array} model.Student
// @Failure 500 {object} errorPayload
// @Router /students [get]
func ListStudents(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return serviceError(c, "list students", err)
		}
		if items == nil {
			items = []model.Student{}
		}
		return c.JSON(items)
	}
}

// GetStudent godoc
// @Summary Get student by id
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} model.Student
// @Failure 404 {object} errorPayload
// @Router /students/{id} [get]
func GetStudent(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, "get student", err)
		}
		return c.JSON(st)
	}
}

// CreateStudent godoc
// @Summary Create student
// @Description Accepts JSON, or multipart/form-data with an optional "file" (image or PDF).
// @Tags students
// @Accept json,mpfd
// @Produce json
// @Param name formData string true "Name"
// @Param age formData integer true "Age"
// @Param course formData string true "Course"
// @Param file formData file false "Attachment"
// @Success 201 {object} model.Student
// @Failure 400 {object} errorPayload
// @Router /students [post]
func CreateStudent(svc service.StudentService, upload config.UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cand, err := candidateFromRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid")
		}

		fh, err := formFile(c, "file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid")
		}

		var file *service.Upload
		if fh != nil {
			if upload.MaxBytes > 0 && fh.Size > upload.MaxBytes {
				return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds the upload size limit")
			}
			ct := fh.Header.Get(fiber.HeaderContentType)
			if !allowedType(ct, upload.AllowedTypes) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_TYPE", "only images and PDF files are allowed")
			}

			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot open uploaded file")
			}
			defer f.Close()

			file = &service.Upload{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}
		}

		st, err := svc.Create(c.UserContext(), cand, file)
		if err != nil {
			return serviceError(c, "create student", err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	}
}

// UpdateStudent godoc
// @Summary Update student
// @Description Replaces name, age and course. A missing student is reported before field errors.
// @Tags students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param student body model.Candidate true "Student fields"
// @Success 200 {object} model.Student
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /students/{id} [put]
func UpdateStudent(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		cand, err := candidateFromRequest(c)
		if err != nil {
			// A missing student still wins over a malformed body.
			if _, gerr := svc.Get(c.UserContext(), id); gerr != nil {
				return serviceError(c, "update student", gerr)
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid")
		}

		st, err := svc.Update(c.UserContext(), id, cand)
		if err != nil {
			return serviceError(c, "update student", err)
		}
		return c.JSON(st)
	}
}

// DeleteStudent godoc
// @Summary Delete student
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Router /students/{id} [delete]
func DeleteStudent(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return serviceError(c, "delete student", err)
		}
		return c.JSON(fiber.Map{"message": "Deleted"})
	}
}

// StudentFile godoc
// @Summary Download the file attached to a student
// @Tags students
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /students/{id}/file [get]
func StudentFile(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := svc.OpenFile(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, "open student file", err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, "inline")
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

// candidateFromRequest reads name, age and course from a form or JSON body.
// Form values stay strings; the validator coerces age. They are copied out
// of the request buffer, which fasthttp reuses once the handler returns.
func candidateFromRequest(c *fiber.Ctx) (model.Candidate, error) {
	var cand model.Candidate

	if isForm(c) {
		cand.Name = utils.CopyString(c.FormValue("name"))
		cand.Age = utils.CopyString(c.FormValue("age"))
		cand.Course = utils.CopyString(c.FormValue("course"))
		return cand, nil
	}

	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return cand, nil
	}
	if err := json.Unmarshal(body, &cand); err != nil {
		return model.Candidate{}, err
	}
	return cand, nil
}

func isForm(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEMultipartForm) || strings.HasPrefix(ct, fiber.MIMEApplicationForm)
}

// formFile returns the named upload, or nil when the request carries none.
func formFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}

// allowedType matches ct against exact types and "type/*" wildcards.
func allowedType(ct string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	if ct == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if prefix, ok := strings.CutSuffix(a, "/*"); ok {
			if strings.HasPrefix(ct, prefix+"/") {
				return true
			}
			continue
		}
		if ct == a {
			return true
		}
	}
	return false
}
