package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

// TaskHandler manages task endpoints.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler constructs handler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{service: taskService}
}

// CreateTask POST /api/tasks.
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.service.CreateTask(c.UserContext(), actor, service.TaskInput{
		Title:                req.Title,
		Description:          req.Description,
		AssigneeID:           req.AssigneeID,
		Priority:             req.Priority,
		RequiresVerification: req.RequiresVerification,
		DueAt:                req.DueAt,
		ShiftID:              req.ShiftID,
		Tags:                 req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": taskResponse(task)})
}

// ListTasks GET /api/tasks.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	filters, meta, err := parseTaskQuery(c)
	if err != nil {
		return err
	}
	tasks, total, err := h.service.ListTasks(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	meta.Total = &total
	return listResponse(c, mapSlice(tasks, taskResponse), meta)
}

// GetTask GET /api/tasks/:id.
func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "task")
	if err != nil {
		return err
	}
	task, err := h.service.GetTask(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// History GET /api/tasks/:id/history.
func (h *TaskHandler) History(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "task")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// UpdateTask PUT /api/tasks/:id.
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "task")
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.service.UpdateTask(c.UserContext(), actor, id, service.TaskUpdate{
		Title:                req.Title,
		Description:          req.Description,
		AssigneeID:           req.AssigneeID,
		Priority:             req.Priority,
		RequiresVerification: req.RequiresVerification,
		DueAt:                req.DueAt,
		ShiftID:              req.ShiftID,
		Tags:                 req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// ChangeStatus PATCH /api/tasks/:id/status.
func (h *TaskHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "task")
	if err != nil {
		return err
	}
	var req dto.TaskStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.service.ChangeStatus(c.UserContext(), actor, id, req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// DeleteTask DELETE /api/tasks/:id.
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	actor, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "task")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTask(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTaskQuery(c *fiber.Ctx) (service.TaskListFilters, dto.ListMeta, error) {
	filters := service.TaskListFilters{
		AssigneeID: optionalQuery(c, "assignee_id"),
		Statuses:   splitCSV[domain.TaskStatus](c.Query("status")),
		Priorities: splitCSV[domain.TaskPriority](c.Query("priority")),
		Search:     optionalQuery(c, "search"),
	}
	var err error
	if filters.DueFrom, err = parseTime(c, "due_from"); err != nil {
		return filters, dto.ListMeta{}, err
	}
	if filters.DueTo, err = parseTime(c, "due_to"); err != nil {
		return filters, dto.ListMeta{}, err
	}
	page, meta := parsePage(c)
	filters.Page = page
	return filters, meta, nil
}
