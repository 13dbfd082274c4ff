package roomhandler

import (
	"errors"
	"net/http"

	"streamifygo/internal/roomcode"
	"streamifygo/internal/services/signaling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	reg signaling.IRoomRegistry
}

func New(reg signaling.IRoomRegistry) *Handler { return &Handler{reg: reg} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/room/generate", h.generate)
	r.GET("/room/:code", h.info)
	r.GET("/stats", h.stats)
}

// @Summary		Reserve a room code
// @Description	Hands out a fresh five character code. The code stays reserved for the grace period until the first participant joins.
// @Tags			Rooms
// @Produce		json
// @Success		200	{object}	GenerateResponse
// @Failure		503	{object}	ErrorResponse
// @Failure		500	{object}	ErrorResponse
// @Router			/room/generate [get]
func (h *Handler) generate(ginCtx *gin.Context) {
	code, err := h.reg.ReserveCode(ginCtx.Request.Context())
	switch {
	case err == nil:
		ginCtx.JSON(http.StatusOK, GenerateResponse{Code: code})
	case errors.Is(err, roomcode.ErrExhausted):
		ginCtx.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no room codes available, try again"})
	default:
		zap.L().Error("roomhandler.generate", zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not reserve a room code"})
	}
}

// @Summary		Get room details
// @Description	Returns the participants of an open room. Reserved codes nobody has joined yet are not rooms.
// @Tags			Rooms
// @Produce		json
// @Param			code	path		string	true	"Room code"	default(AB3K9)
// @Success		200		{object}	signaling.RoomInfo
// @Failure		404		{object}	ErrorResponse
// @Router			/room/{code} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	var p CodePath
	if err := ginCtx.ShouldBindUri(&p); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	info, ok := h.reg.Lookup(p.Code)
	if !ok {
		ginCtx.JSON(http.StatusNotFound, ErrorResponse{Error: signaling.ErrRoomNotFound.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, info)
}

// @Summary		Registry counters
// @Tags			Ops
// @Produce		json
// @Success		200	{object}	signaling.Stats
// @Router			/stats [get]
func (h *Handler) stats(ginCtx *gin.Context) {
	ginCtx.JSON(http.StatusOK, h.reg.Stats())
}
