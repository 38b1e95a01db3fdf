package game

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GameHandler adapts the room service to the HTTP surface polled by
// clients. It owns no state and no locking; every request is one
// service call.
type GameHandler struct {
	service *Service
}

func NewGameHandler(service *Service) *GameHandler {
	return &GameHandler{service: service}
}

// RegisterRoutes mounts the full client API on the router.
func (h *GameHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/create_room", h.CreateRoomHandler)
	r.POST("/join_room", h.JoinRoomHandler)
	r.POST("/reconnect", h.RoomStateHandler)
	r.POST("/room_state", h.RoomStateHandler)
	r.POST("/toggle_ready", h.ToggleReadyHandler)
	r.POST("/update_settings", h.UpdateSettingsHandler)
	r.POST("/update_mission_track", h.UpdateMissionTrackHandler)
	r.POST("/leave_room", h.LeaveRoomHandler)
	r.POST("/kick_player", h.KickPlayerHandler)
	r.POST("/transfer_host", h.TransferHostHandler)
	r.POST("/update_player_order", h.UpdatePlayerOrderHandler)
	r.POST("/start_game", h.StartGameHandler)
	r.POST("/return_to_lobby", h.ReturnToLobbyHandler)
	r.POST("/action", h.ActionHandler)
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	var req struct {
		PlayerName string `json:"playerName" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}

	code, token, err := h.service.CreateRoom(req.PlayerName)
	if err != nil {
		abortWith(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "roomCode": code, "token": token})
}

func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	var req struct {
		PlayerName string `json:"playerName" binding:"required"`
		RoomCode   string `json:"roomCode"`
		Password   string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}

	code, token, err := h.service.JoinRoom(req.PlayerName, req.RoomCode, req.Password)
	if err != nil {
		abortWith(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "roomCode": code, "token": token})
}

// RoomStateHandler serves both /room_state and /reconnect: the poll is the
// heartbeat, and a heartbeat is all reconnecting takes.
func (h *GameHandler) RoomStateHandler(ctx *gin.Context) {
	req, ok := bindRoomToken(ctx)
	if !ok {
		return
	}

	view, err := h.service.RoomState(req.RoomCode, req.Token)
	if err != nil {
		abortWith(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (h *GameHandler) ToggleReadyHandler(ctx *gin.Context) {
	req, ok := bindRoomToken(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.ToggleReady(req.RoomCode, req.Token))
}

func (h *GameHandler) UpdateSettingsHandler(ctx *gin.Context) {
	var req struct {
		RoomCode string        `json:"roomCode" binding:"required"`
		Token    string        `json:"token" binding:"required"`
		Settings SettingsPatch `json:"settings"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}
	h.simple(ctx, h.service.UpdateSettings(req.RoomCode, req.Token, req.Settings))
}

func (h *GameHandler) UpdateMissionTrackHandler(ctx *gin.Context) {
	var req struct {
		RoomCode     string `json:"roomCode" binding:"required"`
		Token        string `json:"token" binding:"required"`
		MissionTrack []int  `json:"missionTrack"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}
	h.simple(ctx, h.service.UpdateMissionTrack(req.RoomCode, req.Token, req.MissionTrack))
}

func (h *GameHandler) LeaveRoomHandler(ctx *gin.Context) {
	req, ok := bindRoomToken(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.LeaveRoom(req.RoomCode, req.Token))
}

func (h *GameHandler) KickPlayerHandler(ctx *gin.Context) {
	req, ok := bindRoomTokenTarget(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.KickPlayer(req.RoomCode, req.Token, req.TargetName))
}

func (h *GameHandler) TransferHostHandler(ctx *gin.Context) {
	req, ok := bindRoomTokenTarget(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.TransferHost(req.RoomCode, req.Token, req.TargetName))
}

func (h *GameHandler) UpdatePlayerOrderHandler(ctx *gin.Context) {
	var req struct {
		RoomCode string   `json:"roomCode" binding:"required"`
		Token    string   `json:"token" binding:"required"`
		NewOrder []string `json:"newOrder"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}
	h.simple(ctx, h.service.UpdatePlayerOrder(req.RoomCode, req.Token, req.NewOrder))
}

func (h *GameHandler) StartGameHandler(ctx *gin.Context) {
	req, ok := bindRoomToken(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.StartGame(req.RoomCode, req.Token))
}

func (h *GameHandler) ReturnToLobbyHandler(ctx *gin.Context) {
	req, ok := bindRoomToken(ctx)
	if !ok {
		return
	}
	h.simple(ctx, h.service.ReturnToLobby(req.RoomCode, req.Token))
}

func (h *GameHandler) ActionHandler(ctx *gin.Context) {
	var req struct {
		RoomCode string      `json:"roomCode" binding:"required"`
		Token    string      `json:"token" binding:"required"`
		Action   string      `json:"action" binding:"required"`
		Value    ActionValue `json:"value"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return
	}
	h.simple(ctx, h.service.Action(req.RoomCode, req.Token, req.Action, req.Value))
}

type roomTokenRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

func bindRoomToken(ctx *gin.Context) (roomTokenRequest, bool) {
	var req roomTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return req, false
	}
	return req, true
}

type roomTokenTargetRequest struct {
	RoomCode   string `json:"roomCode" binding:"required"`
	Token      string `json:"token" binding:"required"`
	TargetName string `json:"targetName" binding:"required"`
}

func bindRoomTokenTarget(ctx *gin.Context) (roomTokenTargetRequest, bool) {
	var req roomTokenTargetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad-request-format"})
		return req, false
	}
	return req, true
}

func (h *GameHandler) simple(ctx *gin.Context, err error) {
	if err != nil {
		abortWith(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// abortWith maps service sentinels to HTTP statuses. Reason strings ride
// along so polling clients can show something useful.
func abortWith(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrNoPublicRoom), errors.Is(err, ErrNoActiveGame):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrNotHost), errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrGameInProgress), errors.Is(err, ErrBadPassword):
		status = http.StatusForbidden
	case errors.Is(err, ErrNameTaken):
		status = http.StatusConflict
	case errors.Is(err, ErrNotEnoughPlayers), errors.Is(err, ErrRoomNotFull), errors.Is(err, ErrPlayersNotReady),
		errors.Is(err, ErrRoleCountMismatch), errors.Is(err, ErrInvalidMissionTrack):
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, gin.H{"success": false, "message": err.Error()})
}
