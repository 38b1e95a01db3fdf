package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Dongshan-Salmon/webgame/logger"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// Service is the entry point for everything a client can do to a room.
// Each method resolves the room, authenticates the caller's token, and
// runs entirely inside the store's critical section.
type Service struct {
	store  *Store
	codes  UniqueIdGenerator
	hasher PasswordHasher
	rng    *rand.Rand
	now    func() time.Time
}

// NewService wires the room directory. rng feeds the game-start shuffles
// and must not be shared with the code generator; it is only ever used
// under the store lock.
func NewService(store *Store, codes UniqueIdGenerator, hasher PasswordHasher, rng *rand.Rand) *Service {
	return &Service{
		store:  store,
		codes:  codes,
		hasher: hasher,
		rng:    rng,
		now:    time.Now,
	}
}

// CreateRoom opens a new room with its creator as ready host and returns
// the room code plus the creator's session token.
func (s *Service) CreateRoom(playerName string) (string, string, error) {
	now := s.now()
	code := s.codes.Generate()
	token := uuid.NewString()

	defaultRoles, _ := DefaultRoles(5)
	defaultTrack, _ := DefaultMissionTrack(5)

	room := &Room{
		Code:       code,
		Players:    []*Player{NewPlayer(playerName, token, true, now)},
		LobbyOrder: []string{playerName},
		Settings: Settings{
			MaxPlayers:     5,
			UseSeer:        true,
			RandomizeOrder: true,
			Roles:          defaultRoles,
			MissionTrack:   defaultTrack,
		},
		CreatedAt: now,
	}
	s.store.Insert(room)

	logger.Infof("[Room %s] Created by %s", code, playerName)
	return code, token, nil
}

// JoinRoom seats a player. An empty code asks for any joinable public
// room. Password-gated rooms require the matching password.
func (s *Service) JoinRoom(playerName, code, password string) (string, string, error) {
	if code == "" {
		return s.joinAnyPublic(playerName)
	}

	token := uuid.NewString()
	err := s.store.Update(code, func(room *Room) error {
		return s.seatPlayer(room, playerName, token, password)
	})
	if err != nil {
		return "", "", err
	}
	return code, token, nil
}

// joinAnyPublic seats the player in the first open public room found. Map
// iteration order supplies the random pick.
func (s *Service) joinAnyPublic(playerName string) (string, string, error) {
	token := uuid.NewString()
	joined := ""
	s.store.UpdateAny(func(room *Room) bool {
		if room.Settings.HasPassword || room.Session != nil || room.PlayerCount() >= room.Settings.MaxPlayers {
			return false
		}
		if room.PlayerByName(playerName) != nil {
			return false
		}
		if err := s.seatPlayer(room, playerName, token, ""); err != nil {
			return false
		}
		joined = room.Code
		return true
	})
	if joined == "" {
		return "", "", ErrNoPublicRoom
	}
	return joined, token, nil
}

func (s *Service) seatPlayer(room *Room, playerName, token, password string) error {
	if room.PlayerCount() >= room.Settings.MaxPlayers {
		return ErrRoomFull
	}
	if room.Session != nil {
		return ErrGameInProgress
	}
	if room.PlayerByName(playerName) != nil {
		return ErrNameTaken
	}
	if room.Settings.HasPassword {
		match, err := s.hasher.Compare(room.Settings.PasswordHash, password)
		if err != nil || !match {
			return ErrBadPassword
		}
	}

	room.Players = append(room.Players, NewPlayer(playerName, token, false, s.now()))
	room.LobbyOrder = playerNames(room)
	logger.Infof("[Room %s] %s joined (%d/%d)", room.Code, playerName, room.PlayerCount(), room.Settings.MaxPlayers)
	return nil
}

// RoomState authenticates a poll, refreshes the caller's heartbeat, and
// returns their filtered view. Reconnect goes through the same path: any
// authenticated poll revives a disconnected player.
func (s *Service) RoomState(code, token string) (RoomView, error) {
	var view RoomView
	err := s.authed(code, token, func(room *Room, p *Player) error {
		p.Heartbeat(s.now())

		var reveal *SeerRevealView
		if room.Session != nil {
			if rev, ok := room.Session.takeSeerReveal(p.Name); ok {
				reveal = &SeerRevealView{
					Target:  rev.Target,
					Faction: rev.Faction,
					Message: revealMessage(rev),
				}
			}
		}
		view = projectRoom(room, p.Name, reveal)
		return nil
	})
	return view, err
}

// ToggleReady flips the caller's ready flag. The host is pinned ready.
func (s *Service) ToggleReady(code, token string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			p.IsReady = !p.IsReady
		}
		return nil
	})
}

// SettingsPatch carries the host's lobby settings update; nil fields are
// left alone.
type SettingsPatch struct {
	MaxPlayers     *int     `json:"maxPlayers"`
	Password       *string  `json:"password"`
	UseSeer        *bool    `json:"useSeer"`
	RandomizeOrder *bool    `json:"randomizeOrder"`
	Roles          []string `json:"customRoles"`
}

// UpdateSettings applies a host edit in the lobby. Changing the player cap
// snaps roles and mission track back to the stock tables for the new
// count, and wins over any role list sent in the same patch.
func (s *Service) UpdateSettings(code, token string, patch SettingsPatch) error {
	// Hash outside the store lock; argon2id is deliberately slow.
	passwordHash := ""
	if patch.Password != nil && *patch.Password != "" {
		h, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return err
		}
		passwordHash = h
	}

	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}

		maxPlayersChanged := false
		if patch.MaxPlayers != nil && *patch.MaxPlayers != room.Settings.MaxPlayers {
			maxPlayersChanged = true
			room.Settings.MaxPlayers = *patch.MaxPlayers
			if roles, ok := DefaultRoles(*patch.MaxPlayers); ok {
				room.Settings.Roles = roles
				room.Settings.MissionTrack, _ = DefaultMissionTrack(*patch.MaxPlayers)
			}
		}
		if patch.Roles != nil && !maxPlayersChanged {
			room.Settings.Roles = patch.Roles
		}
		if patch.Password != nil {
			room.Settings.PasswordHash = passwordHash
			room.Settings.HasPassword = *patch.Password != ""
		}
		if patch.UseSeer != nil {
			room.Settings.UseSeer = *patch.UseSeer
		}
		if patch.RandomizeOrder != nil {
			room.Settings.RandomizeOrder = *patch.RandomizeOrder
		}
		return nil
	})
}

// UpdateMissionTrack replaces the 5-mission team size track.
func (s *Service) UpdateMissionTrack(code, token string, track []int) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}
		if len(track) != 5 {
			return ErrInvalidMissionTrack
		}
		for _, size := range track {
			if size < 1 || size > room.Settings.MaxPlayers {
				return ErrInvalidMissionTrack
			}
		}
		room.Settings.MissionTrack = append([]int(nil), track...)
		return nil
	})
}

// LeaveRoom removes the caller. A departing host hands the room to the
// next seat; the last player out deletes the room. Leaving a room you are
// no longer in succeeds quietly.
func (s *Service) LeaveRoom(code, token string) error {
	emptied := false
	err := s.store.Modify(code, func(room *Room) (bool, error) {
		leaver := room.PlayerByToken(token)
		if leaver == nil {
			return false, nil
		}

		wasHost := leaver.IsHost
		remaining := room.Players[:0]
		for _, p := range room.Players {
			if p.Token != token {
				remaining = append(remaining, p)
			}
		}
		room.Players = remaining
		room.LobbyOrder = playerNames(room)

		if len(room.Players) == 0 {
			emptied = true
			return true, nil
		}
		if wasHost {
			room.Players[0].IsHost = true
			room.Players[0].IsReady = true
		}
		logger.Infof("[Room %s] %s left", room.Code, leaver.Name)
		return false, nil
	})
	if emptied {
		s.codes.Dispose(code)
		logger.Infof("[Room %s] Deleted: empty", code)
	}
	if err == ErrRoomNotFound {
		return nil
	}
	return err
}

// KickPlayer throws a player out of the lobby.
func (s *Service) KickPlayer(code, token, targetName string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}

		remaining := room.Players[:0]
		for _, pl := range room.Players {
			if pl.Name != targetName {
				remaining = append(remaining, pl)
			}
		}
		room.Players = remaining

		order := room.LobbyOrder[:0]
		for _, name := range room.LobbyOrder {
			if name != targetName {
				order = append(order, name)
			}
		}
		room.LobbyOrder = order
		return nil
	})
}

// TransferHost hands the host seat to the named player. Ready flags follow
// the host flag, so everyone re-readies for the new host.
func (s *Service) TransferHost(code, token, targetName string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}
		if room.PlayerByName(targetName) == nil {
			return nil
		}
		for _, pl := range room.Players {
			pl.IsHost = pl.Name == targetName
			pl.IsReady = pl.IsHost
		}
		return nil
	})
}

// UpdatePlayerOrder lets the host rearrange lobby seating. The new order
// must be a permutation of the seated names.
func (s *Service) UpdatePlayerOrder(code, token string, newOrder []string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}
		if len(newOrder) != room.PlayerCount() {
			return nil
		}
		seen := make(map[string]bool, len(newOrder))
		for _, name := range newOrder {
			if room.PlayerByName(name) == nil || seen[name] {
				return nil
			}
			seen[name] = true
		}
		room.LobbyOrder = append([]string(nil), newOrder...)
		return nil
	})
}

// StartGame deals roles and opens mission 1. The lobby must be exactly at
// its configured capacity with everyone ready and a role list sized to
// the table.
func (s *Service) StartGame(code, token string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if room.Session != nil {
			return ErrGameInProgress
		}
		pc := room.PlayerCount()
		if pc < 5 {
			return ErrNotEnoughPlayers
		}
		if pc != room.Settings.MaxPlayers {
			return ErrRoomNotFull
		}
		for _, pl := range room.Players {
			if !pl.IsReady {
				return ErrPlayersNotReady
			}
		}
		if len(room.Settings.Roles) != pc {
			return ErrRoleCountMismatch
		}

		room.Session = startSession(room, s.rng, s.now())
		logger.Infof("[Room %s] Game started with %d players, leader %s", room.Code, pc, room.Session.Leader())
		return nil
	})
}

// ReturnToLobby discards the session and reopens the lobby. Works in any
// phase, but only the host can pull the table back.
func (s *Service) ReturnToLobby(code, token string) error {
	return s.authed(code, token, func(room *Room, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		room.Session = nil
		room.LobbyOrder = playerNames(room)
		for _, pl := range room.Players {
			pl.IsReady = pl.IsHost
		}
		logger.Infof("[Room %s] Returned to lobby", room.Code)
		return nil
	})
}

// Action feeds one in-game action envelope into the session. Unknown room
// or token surfaces; everything else is the session's silent-no-op
// contract. A player spamming the endpoint past their rate allowance is
// dropped the same silent way.
func (s *Service) Action(code, token, action string, value ActionValue) error {
	return s.store.Update(code, func(room *Room) error {
		if room.Session == nil {
			return ErrNoActiveGame
		}
		p := room.PlayerByToken(token)
		if p == nil {
			return ErrInvalidToken
		}
		if !p.limiter.Allow() {
			logger.Debugf("[Room %s] Dropped action %q from %s: rate limited", room.Code, action, p.Name)
			return nil
		}
		room.applyAction(p.Name, action, value, s.now())
		return nil
	})
}

// authed runs fn with the room and the token's player resolved, under the
// store lock.
func (s *Service) authed(code, token string, fn func(room *Room, p *Player) error) error {
	return s.store.Update(code, func(room *Room) error {
		p := room.PlayerByToken(token)
		if p == nil {
			return ErrInvalidToken
		}
		return fn(room, p)
	})
}

func playerNames(room *Room) []string {
	names := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		names = append(names, p.Name)
	}
	return names
}
