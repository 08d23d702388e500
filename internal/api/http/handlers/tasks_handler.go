package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// TasksHandler serves follow-up tasks.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// List handles GET /api/crm/tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	dueBefore, err := parseDate(c.Query("dueBefore"))
	if err != nil {
		return err
	}
	tasks, err := h.service.List(c.UserContext(), auth.IdentityFromContext(c), service.TaskListFilter{
		LeadID:    queryPtr(c, "leadId"),
		Status:    enumQuery[domain.TaskStatus](c, "status"),
		Priority:  enumQuery[domain.Priority](c, "priority"),
		DueBefore: dueBefore,
		Page:      parsePage(c),
	})
	if err != nil {
		return err
	}
	resp := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, taskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /api/crm/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	task, err := h.service.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// Create handles POST /api/crm/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input := service.TaskInput{
		LeadID:       req.LeadID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.Priority(req.Priority),
		AssignedToID: req.AssignedToID,
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			return err
		}
		input.DueDate = due
	}
	task, err := h.service.Create(c.UserContext(), auth.IdentityFromContext(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": taskResponse(task)})
}

// Update handles PUT /api/crm/tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input := service.TaskUpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     enumPtr[domain.Priority](req.Priority),
		AssignedToID: req.AssignedToID,
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			input.ClearDueDate = true
		} else {
			due, err := parseDate(*req.DueDate)
			if err != nil {
				return err
			}
			input.DueDate = due
		}
	}
	task, err := h.service.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// Complete handles PATCH /api/crm/tasks/:id/complete.
func (h *TasksHandler) Complete(c *fiber.Ctx) error {
	task, err := h.service.Complete(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// Delete handles DELETE /api/crm/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
