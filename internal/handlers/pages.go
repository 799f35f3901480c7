package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	dom "todoboard/internal/domain"
	"todoboard/internal/dto"
	"todoboard/internal/flash"
	"todoboard/internal/service"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the server-rendered board and its form/JSON endpoints.
type PageHandler struct {
	svc     *service.TodoService
	flashes *flash.Store
}

func NewPageHandler(svc *service.TodoService, flashes *flash.Store) *PageHandler {
	return &PageHandler{svc: svc, flashes: flashes}
}

// Home renders the filtered list.
func (h *PageHandler) Home(c *gin.Context) {
	var params dto.ListParams
	_ = c.ShouldBindQuery(&params)
	q := params.Query()

	ctx := c.Request.Context()
	list, err := h.svc.List(ctx, q)
	if err != nil {
		h.internalError(c, err)
		return
	}
	cats, err := h.svc.Categories(ctx)
	if err != nil {
		h.internalError(c, err)
		return
	}
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.HTML(http.StatusOK, "home.html", h.page(c, "Todo board", gin.H{
		"Todos":      list,
		"Categories": cats,
		"Stats":      stats,
		"Filter":     q,
	}))
}

// Create handles the new-todo form.
func (h *PageHandler) Create(c *gin.Context) {
	var form dto.CreateTodoForm
	if err := c.ShouldBind(&form); err != nil {
		h.flashes.Add(c, flash.Error, err.Error())
		c.Redirect(http.StatusFound, "/")
		return
	}
	due, err := dto.ParseDueDate(form.DueDate)
	if err != nil {
		h.flashes.Add(c, flash.Error, err.Error())
		c.Redirect(http.StatusFound, "/")
		return
	}

	_, err = h.svc.Create(c.Request.Context(), service.NewTodo{
		Title:       form.Title,
		Description: form.Description,
		Priority:    form.Priority,
		Category:    form.Category,
		DueDate:     due,
	})
	if err != nil {
		if !errors.Is(err, service.ErrValidation) {
			h.internalError(c, err)
			return
		}
		h.flashes.Add(c, flash.Error, err.Error())
	} else {
		h.flashes.Add(c, flash.Success, "Todo added successfully!")
	}
	c.Redirect(http.StatusFound, "/")
}

// Edit renders the update form.
func (h *PageHandler) Edit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.notFound(c)
			return
		}
		h.internalError(c, err)
		return
	}
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.HTML(http.StatusOK, "update.html", h.page(c, "Update todo", gin.H{
		"Todo":       t,
		"Categories": cats,
	}))
}

// Update handles the full-update form. Missing priority/status fall back to
// Medium/Pending and an empty due date clears it.
func (h *PageHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	back := "/update/" + strconv.FormatInt(id, 10)

	var form dto.UpdateTodoForm
	if err := c.ShouldBind(&form); err != nil {
		h.flashes.Add(c, flash.Error, err.Error())
		c.Redirect(http.StatusFound, back)
		return
	}
	due, err := dto.ParseDueDate(form.DueDate)
	if err != nil {
		h.flashes.Add(c, flash.Error, err.Error())
		c.Redirect(http.StatusFound, back)
		return
	}
	priority := form.Priority
	if priority == "" {
		priority = string(dom.PriorityMedium)
	}
	status := form.Status
	if status == "" {
		status = string(dom.StatusPending)
	}

	_, err = h.svc.UpdateFields(c.Request.Context(), id, service.TodoPatch{
		Title:        &form.Title,
		Description:  &form.Description,
		Priority:     &priority,
		Status:       &status,
		Category:     &form.Category,
		DueDate:      due,
		ClearDueDate: due == nil,
	})
	switch {
	case err == nil:
		h.flashes.Add(c, flash.Success, "Todo updated successfully!")
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, service.ErrNotFound):
		h.notFound(c)
	case errors.Is(err, service.ErrValidation):
		h.flashes.Add(c, flash.Error, err.Error())
		c.Redirect(http.StatusFound, back)
	default:
		h.internalError(c, err)
	}
}

// Delete removes the todo and returns to the board.
func (h *PageHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	err := h.svc.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		h.flashes.Add(c, flash.Success, "Todo deleted successfully!")
	case errors.Is(err, service.ErrNotFound):
		h.flashes.Add(c, flash.Error, "Todo not found.")
	default:
		h.internalError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// UpdateStatus is the quick status toggle used by the board's drag-and-drop.
func (h *PageHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.StatusResponse{Success: false})
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.StatusResponse{Success: false})
		return
	}
	_, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.StatusResponse{Success: true})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.StatusResponse{Success: false})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.StatusResponse{Success: false})
	default:
		log.Printf("update status %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, dto.StatusResponse{Success: false})
	}
}

// Stats returns the per-status counters.
func (h *PageHandler) Stats(c *gin.Context) {
	s, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewStatsResponse(s))
}

func (h *PageHandler) page(c *gin.Context, title string, data gin.H) gin.H {
	data["PageTitle"] = title
	data["Flashes"] = h.flashes.Consume(c)
	data["Priorities"] = dom.Priorities
	data["Statuses"] = dom.Statuses
	return data
}

func (h *PageHandler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", h.page(c, "Not found", gin.H{}))
}

func (h *PageHandler) internalError(c *gin.Context, err error) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, "internal server error")
}
