package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room-not-found")
	ErrRoomFull     = errors.New("room-full")
	ErrInvalidToken = errors.New("invalid-token")
	ErrNoPublicRoom = errors.New("no-public-room")
	ErrNameTaken    = errors.New("name-taken")
	ErrBadPassword  = errors.New("bad-password")
)

// Lobby-control preconditions. All of these surface as rejected operations;
// in-game action preconditions are silent no-ops instead (see session.go).
var (
	ErrNotHost             = errors.New("not-host")
	ErrGameInProgress      = errors.New("game-in-progress")
	ErrNotEnoughPlayers    = errors.New("not-enough-players")
	ErrRoomNotFull         = errors.New("room-not-full")
	ErrPlayersNotReady     = errors.New("players-not-ready")
	ErrRoleCountMismatch   = errors.New("role-count-mismatch")
	ErrInvalidMissionTrack = errors.New("invalid-mission-track")
	ErrNoActiveGame        = errors.New("no-active-game")
)
