package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNames = []string{"alice", "bob", "carol", "dave", "eve", "frank", "grace", "henry", "iris", "jack"}

var testStart = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// testRoom builds an in-memory room with count seated, ready, connected
// players and stock settings. Seating randomization is off so tests can
// reason about seat numbers.
func testRoom(count int) *Room {
	players := make([]*Player, 0, count)
	for i, name := range testNames[:count] {
		p := NewPlayer(name, "tok-"+name, i == 0, testStart)
		p.IsReady = true
		players = append(players, p)
	}
	roles, _ := DefaultRoles(count)
	track, _ := DefaultMissionTrack(count)
	return &Room{
		Code:       "TEST1",
		Players:    players,
		LobbyOrder: append([]string(nil), testNames[:count]...),
		Settings: Settings{
			MaxPlayers:   count,
			Roles:        roles,
			MissionTrack: track,
		},
		CreatedAt: testStart,
	}
}

func startTestGame(t *testing.T, room *Room, seed int64) {
	t.Helper()
	room.Session = startSession(room, rand.New(rand.NewSource(seed)), testStart)
	require.NotNil(t, room.Session)
}

// dealRoles pins the role assignment so tests control who is who.
func dealRoles(t *testing.T, room *Room, roles []string) {
	t.Helper()
	sess := room.Session
	require.Len(t, roles, len(sess.PlayerOrder))
	sess.RolesInGame = append([]string(nil), roles...)
	for i, name := range sess.PlayerOrder {
		sess.AssignedRoles[name] = roles[i]
	}
}

func proposeTeam(room *Room, team ...string) {
	room.applyAction(room.Session.Leader(), ACTION_PROPOSE_TEAM, ActionValue{Team: team}, testStart)
}

// voteAll casts the same team vote for every seated player.
func voteAll(room *Room, vote string) {
	for _, p := range room.Players {
		room.applyAction(p.Name, ACTION_VOTE_TEAM, ActionValue{Vote: vote}, testStart)
	}
}

// playMission drives a full clean round: the leader proposes team, all
// approve, and each team member plays the given card.
func playMission(t *testing.T, room *Room, team []string, cards map[string]string) {
	t.Helper()
	sess := room.Session
	require.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)

	proposeTeam(room, team...)
	require.Equal(t, PHASE_TEAM_VOTE, sess.Phase)
	voteAll(room, VOTE_APPROVE)
	require.Equal(t, PHASE_MISSION_VOTE, sess.Phase)

	for _, name := range team {
		card, ok := cards[name]
		if !ok {
			card = MISSION_SUCCESS
		}
		room.applyAction(name, ACTION_MISSION_VOTE, ActionValue{Vote: card}, testStart)
	}
}
