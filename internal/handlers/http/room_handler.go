package http

import (
	stderrors "errors"
	"net/http"
	"strings"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
	"ourscreen/internal/infrastructure/monitoring"
	"ourscreen/pkg/errors"
	"ourscreen/pkg/validation"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService ports.RoomService
	metrics     *monitoring.PrometheusCollector
}

func NewRoomHandler(roomService ports.RoomService, metrics *monitoring.PrometheusCollector) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		metrics:     metrics,
	}
}

func (h *RoomHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/rooms")
	{
		api.POST("", h.CreateRoom)
		api.GET("", h.ListPublicRooms)
		api.GET("/:id", h.GetRoom)
		api.DELETE("/:id", h.DeleteRoom)
		api.PUT("/:id/visibility", h.SetVisibility)

		api.POST("/:id/participants", h.Join)
		api.GET("/:id/participants", h.ListParticipants)
		api.DELETE("/:id/participants/:key", h.Leave)

		api.POST("/:id/messages", h.SendMessage)
		api.GET("/:id/messages", h.ListMessages)

		api.GET("/:id/media", h.GetMediaState)
		api.PUT("/:id/media", h.SetMediaState)
	}
}

type CreateRoomRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	Quick      bool   `json:"quick"`
}

type VisibilityRequest struct {
	Visibility string `json:"visibility" binding:"required"`
}

type JoinRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required,max=100"`
	AvatarURL string `json:"avatarUrl"`
	Hint      string `json:"hint"`
}

type MessageRequest struct {
	User   string `json:"user" binding:"required,max=100"`
	Text   string `json:"text" binding:"required,max=2000"`
	Avatar string `json:"avatar"`
}

// roomID extracts and validates the :id path parameter.
func (h *RoomHandler) roomID(c *gin.Context) (domain.RoomID, bool) {
	id := c.Param("id")
	if err := validation.ValidateRoomID(id); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return "", false
	}
	return domain.RoomID(id), true
}

// fail translates domain errors to application errors.
func (h *RoomHandler) fail(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, domain.ErrRoomNotFound):
		c.Error(errors.NewNotFoundError("room"))
	case stderrors.Is(err, domain.ErrParticipantNotFound):
		c.Error(errors.NewNotFoundError("participant"))
	case stderrors.Is(err, domain.ErrRoomExists):
		c.Error(errors.NewConflictError("room already exists"))
	case validation.IsValidationError(err):
		c.Error(errors.NewInvalidInputError(err.Error()))
	default:
		c.Error(err)
	}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	visibility := domain.Visibility(strings.TrimSpace(req.Visibility))
	if req.Visibility != "" {
		if err := validation.ValidateVisibility(string(visibility)); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), ports.CreateRoomParams{
		Name:       strings.TrimSpace(req.Name),
		Visibility: visibility,
		Quick:      req.Quick,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRoomCreated(room.ID)
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) ListPublicRooms(c *gin.Context) {
	rooms, err := h.roomService.ListPublicRooms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	if rooms == nil {
		rooms = []*domain.Room{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRoomDeleted(id)
	}

	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) SetVisibility(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateVisibility(req.Visibility); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	room, err := h.roomService.SetVisibility(c.Request.Context(), id, domain.Visibility(req.Visibility))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Join(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	p, err := h.roomService.Join(c.Request.Context(), id, ports.JoinParams{
		ID:        strings.TrimSpace(req.ID),
		Name:      strings.TrimSpace(req.Name),
		AvatarURL: req.AvatarURL,
		Hint:      req.Hint,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordParticipantJoined(id)
	}

	c.JSON(http.StatusCreated, p)
}

func (h *RoomHandler) ListParticipants(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	participants, err := h.roomService.ListParticipants(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	if participants == nil {
		participants = []*domain.Participant{}
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *RoomHandler) Leave(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	key := c.Param("key")
	if err := validation.ValidateParticipantKey(key); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	if err := h.roomService.Leave(c.Request.Context(), id, domain.ParticipantKey(key)); err != nil {
		h.fail(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordParticipantLeft(id)
	}

	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) SendMessage(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	msg, err := h.roomService.SendMessage(c.Request.Context(), id, strings.TrimSpace(req.User), req.Text, req.Avatar)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMessage()
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *RoomHandler) ListMessages(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	messages, err := h.roomService.ListMessages(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	if messages == nil {
		messages = []*domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *RoomHandler) GetMediaState(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	state, err := h.roomService.GetMediaState(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *RoomHandler) SetMediaState(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}

	var state domain.MediaState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	updated, err := h.roomService.SetMediaState(c.Request.Context(), id, &state)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
