package game

import (
	"fmt"
	"strings"
)

type PlayerView struct {
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
	Status  string `json:"status"`
}

type RolePoolView struct {
	Good []string `json:"good"`
	Evil []string `json:"evil"`
}

// LobbyGameInfo summarizes the configured game while the room is still in
// the lobby.
type LobbyGameInfo struct {
	GoodCount  int      `json:"good_count"`
	EvilCount  int      `json:"evil_count"`
	Roles      []string `json:"roles"`
	MissionMap []int    `json:"mission_map"`
}

type SeerRevealView struct {
	Target  string `json:"target"`
	Faction string `json:"faction"`
	Message string `json:"message"`
}

// MyInfo is the viewer's private slice of the session: their own role and
// whatever the knowledge rules grant that role.
type MyInfo struct {
	Role           string          `json:"role"`
	IsEvil         bool            `json:"is_evil"`
	RoleInfo       string          `json:"role_info"`
	KnownEvil      []string        `json:"known_evil"`
	LastSeerReveal *SeerRevealView `json:"last_seer_reveal,omitempty"`
}

type GameStateView struct {
	Phase            GamePhase         `json:"phase"`
	PhaseText        string            `json:"phase_text"`
	PlayerOrder      []string          `json:"player_order"`
	CurrentLeader    string            `json:"current_leader"`
	MissionNumber    int               `json:"mission_number"`
	QuestTrack       []string          `json:"quest_track"`
	MyInfo           MyInfo            `json:"my_info"`
	IsLeader         bool              `json:"is_leader"`
	TeamProposal     []string          `json:"team_proposal"`
	Votes            map[string]string `json:"votes"`
	MissionVotes     map[string]string `json:"mission_votes"`
	MyVote           string            `json:"my_vote,omitempty"`
	MyMissionVote    string            `json:"my_mission_vote,omitempty"`
	IsOnMission      bool              `json:"is_on_mission"`
	VoteRejectCount  int               `json:"vote_reject_count"`
	MissionTeamSizes []int             `json:"mission_team_sizes"`
	MissionTeamSize  int               `json:"mission_team_size"`
	SeerHolder       string            `json:"seer_holder"`
	IsSeerHolder     bool              `json:"is_seer_holder"`
	SeerUsedOn       []string          `json:"seer_used_on"`
	GameStartTime    int64             `json:"game_start_time"`
	LastVoteDetails  []VoteDetail      `json:"last_vote_details,omitempty"`
	MissionHistory   []MissionRecord   `json:"mission_history"`
	AllPossibleRoles RolePoolView      `json:"all_possible_roles"`
	GameOverData     *GameOverData     `json:"game_over_data,omitempty"`
}

type RoomView struct {
	Success          bool           `json:"success"`
	RoomCode         string         `json:"roomCode"`
	Players          []PlayerView   `json:"players"`
	LobbyPlayerOrder []string       `json:"lobbyPlayerOrder"`
	Settings         Settings       `json:"settings"`
	GameState        *GameStateView `json:"gameState,omitempty"`
	GameInfo         *LobbyGameInfo `json:"gameInfo,omitempty"`
	AllRolesPool     *RolePoolView  `json:"all_roles_pool,omitempty"`
}

// projectRoom derives the filtered room state one viewer is allowed to see.
// It is a pure read of the room: the one-shot seer reveal is popped by the
// caller and passed in, so the same inputs always produce the same view.
func projectRoom(room *Room, viewer string, reveal *SeerRevealView) RoomView {
	view := RoomView{
		Success:          true,
		RoomCode:         room.Code,
		Players:          make([]PlayerView, 0, len(room.Players)),
		LobbyPlayerOrder: append([]string(nil), room.LobbyOrder...),
		Settings:         room.Settings,
	}
	for _, p := range room.Players {
		view.Players = append(view.Players, PlayerView{
			Name:    p.Name,
			IsHost:  p.IsHost,
			IsReady: p.IsReady,
			Status:  p.Status,
		})
	}

	if room.Session == nil {
		good, evil := splitByFaction(room.Settings.Roles)
		view.GameInfo = &LobbyGameInfo{
			GoodCount:  len(good),
			EvilCount:  len(evil),
			Roles:      append(good, evil...),
			MissionMap: append([]int(nil), room.Settings.MissionTrack...),
		}
		view.AllRolesPool = &RolePoolView{Good: GoodRolePool, Evil: EvilRolePool}
		return view
	}

	view.GameState = projectSession(room.Session, viewer, reveal)
	return view
}

func projectSession(sess *Session, viewer string, reveal *SeerRevealView) *GameStateView {
	myRole := sess.AssignedRoles[viewer]
	good, evil := splitByFaction(sess.RolesInGame)

	gs := &GameStateView{
		Phase:            sess.Phase,
		PhaseText:        sess.Phase.Text(),
		PlayerOrder:      append([]string(nil), sess.PlayerOrder...),
		CurrentLeader:    sess.Leader(),
		MissionNumber:    sess.MissionNumber,
		QuestTrack:       append([]string(nil), sess.QuestTrack...),
		MyInfo:           viewerInfo(sess, viewer, myRole, reveal),
		IsLeader:         sess.Leader() == viewer,
		TeamProposal:     append([]string(nil), sess.TeamProposal...),
		Votes:            copyVotes(sess.Votes),
		MissionVotes:     copyVotes(sess.MissionVotes),
		MyVote:           sess.Votes[viewer],
		MyMissionVote:    sess.MissionVotes[viewer],
		IsOnMission:      sess.onProposedTeam(viewer),
		VoteRejectCount:  sess.VoteRejectCount,
		MissionTeamSizes: append([]int(nil), sess.MissionTeamSizes...),
		MissionTeamSize:  sess.MissionTeamSizes[sess.MissionNumber-1],
		SeerHolder:       sess.SeerHolder,
		IsSeerHolder:     sess.SeerHolder == viewer,
		SeerUsedOn:       append([]string(nil), sess.SeerUsedOn...),
		GameStartTime:    sess.GameStartTime.UnixMilli(),
		LastVoteDetails:  sess.LastVoteDetails,
		MissionHistory:   sess.MissionHistory,
		AllPossibleRoles: RolePoolView{Good: good, Evil: evil},
	}
	if sess.Phase == PHASE_END {
		gs.GameOverData = sess.GameOverData
	}
	return gs
}

// viewerInfo applies the knowledge rules: Merlin sees evil minus Mordred,
// Percival sees the Merlin/Morgana pair without knowing which is which,
// evil players other than Oberon see each other, and everyone else sees
// only their own card.
func viewerInfo(sess *Session, viewer, myRole string, reveal *SeerRevealView) MyInfo {
	info := MyInfo{
		Role:           myRole,
		IsEvil:         IsEvilRole(myRole),
		KnownEvil:      []string{},
		LastSeerReveal: reveal,
	}

	switch {
	case myRole == ROLE_MERLIN:
		var seen []string
		for _, name := range sess.PlayerOrder {
			role := sess.AssignedRoles[name]
			if IsEvilRole(role) && role != ROLE_MORDRED {
				seen = append(seen, name)
			}
		}
		info.RoleInfo = "The evil players you can see: " + strings.Join(seen, ", ")

	case myRole == ROLE_PERCIVAL:
		var pair []string
		for _, name := range sess.PlayerOrder {
			role := sess.AssignedRoles[name]
			if role == ROLE_MERLIN || role == ROLE_MORGANA {
				pair = append(pair, name)
			}
		}
		info.RoleInfo = "Merlin and Morgana are among: " + strings.Join(pair, ", ")

	case info.IsEvil && myRole != ROLE_OBERON:
		var crew, others []string
		for _, name := range sess.PlayerOrder {
			role := sess.AssignedRoles[name]
			if IsEvilRole(role) && role != ROLE_OBERON {
				crew = append(crew, name)
				if name != viewer {
					others = append(others, name)
				}
			}
		}
		info.KnownEvil = crew
		info.RoleInfo = "Your evil companions: " + strings.Join(others, ", ")
	}

	return info
}

func copyVotes(votes map[string]string) map[string]string {
	out := make(map[string]string, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}

// revealMessage renders the private seer result the way clients display it.
func revealMessage(rev seerReveal) string {
	return fmt.Sprintf("You examined %s; their allegiance is %s.", rev.Target, rev.Faction)
}
