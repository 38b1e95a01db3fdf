package game

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type GamePhase int

const (
	PHASE_TEAM_BUILDING GamePhase = iota // Leader is picking a mission team.
	PHASE_TEAM_VOTE                      // Everyone votes on the proposed team.
	PHASE_MISSION_VOTE                   // Team members play success/fail.
	PHASE_SEER_REVEAL                    // Seer holder examines one player.
	PHASE_ASSASSINATION                  // Evil tries to name Merlin.
	PHASE_END                            // Terminal; only return-to-lobby exits.
)

var phaseNames = map[GamePhase]string{
	PHASE_TEAM_BUILDING: "team_building",
	PHASE_TEAM_VOTE:     "team_vote",
	PHASE_MISSION_VOTE:  "mission_vote",
	PHASE_SEER_REVEAL:   "seer_reveal",
	PHASE_ASSASSINATION: "assassination",
	PHASE_END:           "end",
}

var phaseTexts = map[GamePhase]string{
	PHASE_TEAM_BUILDING: "Building the team",
	PHASE_TEAM_VOTE:     "Voting on the team",
	PHASE_MISSION_VOTE:  "Running the mission",
	PHASE_SEER_REVEAL:   "Seer examination",
	PHASE_ASSASSINATION: "Assassination",
	PHASE_END:           "Game over",
}

func (p GamePhase) String() string {
	return phaseNames[p]
}

// Text is the display label shipped to clients alongside the phase name.
func (p GamePhase) Text() string {
	return phaseTexts[p]
}

func (p GamePhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + phaseNames[p] + `"`), nil
}

func (p *GamePhase) UnmarshalJSON(data []byte) error {
	name, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

const (
	STATUS_CONNECTED    = "connected"
	STATUS_DISCONNECTED = "disconnected"
)

const (
	VOTE_APPROVE = "approve"
	VOTE_REJECT  = "reject"

	MISSION_SUCCESS = "success"
	MISSION_FAIL    = "fail"

	RESULT_PENDING = "pending"
)

type Player struct {
	Name     string
	Token    string
	IsHost   bool
	IsReady  bool
	Status   string
	LastSeen time.Time

	limiter *rate.Limiter
}

func NewPlayer(name, token string, isHost bool, now time.Time) *Player {
	return &Player{
		Name:     name,
		Token:    token,
		IsHost:   isHost,
		IsReady:  isHost,
		Status:   STATUS_CONNECTED,
		LastSeen: now,
		limiter:  rate.NewLimiter(rate.Limit(4), 8),
	}
}

// Heartbeat marks the player alive as of now. Any authenticated call counts.
func (p *Player) Heartbeat(now time.Time) {
	p.LastSeen = now
	p.Status = STATUS_CONNECTED
}

type Settings struct {
	MaxPlayers     int      `json:"maxPlayers"`
	PasswordHash   string   `json:"-"`
	HasPassword    bool     `json:"hasPassword"`
	UseSeer        bool     `json:"useSeer"`
	RandomizeOrder bool     `json:"randomizeOrder"`
	Roles          []string `json:"customRoles"`
	MissionTrack   []int    `json:"missionTrack"`
}

type Room struct {
	Code       string
	Players    []*Player
	LobbyOrder []string
	Settings   Settings
	Session    *Session
	CreatedAt  time.Time
}

func (r *Room) PlayerByToken(token string) *Player {
	for _, p := range r.Players {
		if p.Token == token {
			return p
		}
	}
	return nil
}

func (r *Room) PlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

type MissionRecord struct {
	MissionNum int      `json:"mission_num"`
	Leader     string   `json:"leader"`
	Team       []string `json:"team"`
	Result     string   `json:"result"`
	Fails      int      `json:"fails"`
}

type VoteDetail struct {
	Name string `json:"name"`
	Vote string `json:"vote,omitempty"`
}

type RosterEntry struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Faction string `json:"faction"`
}

type GameOverData struct {
	WinningTeam string        `json:"winning_team"`
	Reason      string        `json:"reason"`
	Duration    int64         `json:"duration"` // milliseconds since game start
	AllRoles    []RosterEntry `json:"all_roles"`
}

// seerReveal is the private result of one seer examination, held for the
// outgoing holder until their next state poll picks it up.
type seerReveal struct {
	Target  string
	Faction string
}

// Session is the state of one running game. It is created whole at game
// start and only ever mutated under the store lock, through the action
// dispatch and auto-action paths.
type Session struct {
	Phase            GamePhase
	PlayerOrder      []string
	AssignedRoles    map[string]string
	RolesInGame      []string
	CurrentLeaderIdx int
	MissionNumber    int
	QuestTrack       []string
	MissionTeamSizes []int
	TeamProposal     []string
	Votes            map[string]string
	MissionVotes     map[string]string
	VoteRejectCount  int
	SeerHolder       string
	SeerUsedMissions []int
	SeerUsedOn       []string
	seerReveals      map[string]seerReveal
	MissionHistory   []MissionRecord
	LastVoteDetails  []VoteDetail
	GameStartTime    time.Time
	GameOverData     *GameOverData
}

// Leader returns the name of the current mission leader.
func (s *Session) Leader() string {
	return s.PlayerOrder[s.CurrentLeaderIdx]
}

func (s *Session) onProposedTeam(name string) bool {
	for _, n := range s.TeamProposal {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Session) seerAlreadyUsedOn(name string) bool {
	for _, n := range s.SeerUsedOn {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Session) seerUsedThisMission(mission int) bool {
	for _, m := range s.SeerUsedMissions {
		if m == mission {
			return true
		}
	}
	return false
}

// takeSeerReveal pops the pending private reveal for a player, if any.
// Reveals are one-shot: reading clears.
func (s *Session) takeSeerReveal(name string) (seerReveal, bool) {
	rev, ok := s.seerReveals[name]
	if ok {
		delete(s.seerReveals, name)
	}
	return rev, ok
}
