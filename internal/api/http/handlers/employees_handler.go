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

// EmployeesHandler manages the employee directory.
type EmployeesHandler struct {
	service *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{service: employeeService}
}

// Me handles GET /api/employees/me.
func (h *EmployeesHandler) Me(c *fiber.Ctx) error {
	profile, err := h.service.Me(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	resp := dto.EmployeeProfileResponse{
		EmployeeResponse: employeeResponse(profile.Employee),
		TeamMembers:      employeeResponses(profile.Reports),
	}
	if profile.Manager != nil {
		manager := employeeResponse(profile.Manager)
		resp.Manager = &manager
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"employee": resp}})
}

// List handles GET /api/employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	filter := service.EmployeeListFilter{
		Role: enumQuery[domain.Role](c, "role"),
		Page: parsePage(c),
	}
	if active := c.Query("isActive"); active != "" {
		val := active == "true"
		filter.Active = &val
	}
	employees, err := h.service.List(c.UserContext(), auth.IdentityFromContext(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponses(employees)})
}

// Create handles POST /api/employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateEmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := h.service.Create(c.UserContext(), auth.IdentityFromContext(c), service.CreateEmployeeInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Update handles PUT /api/employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateEmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input := service.UpdateEmployeeInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		Active:    req.IsActive,
		Password:  req.Password,
	}
	if req.ManagerID != nil {
		if strings.TrimSpace(*req.ManagerID) == "" {
			input.ClearManager = true
		} else {
			input.ManagerID = req.ManagerID
		}
	}
	employee, err := h.service.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Deactivate handles DELETE /api/employees/:id.
func (h *EmployeesHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.service.Deactivate(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "employee deactivated"}})
}

// Team handles GET /api/employees/:id/team.
func (h *EmployeesHandler) Team(c *fiber.Ctx) error {
	team, err := h.service.Team(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponses(team)})
}
