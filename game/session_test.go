package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionDealsFullGame(t *testing.T) {
	t.Parallel()

	for pc := 5; pc <= 10; pc++ {
		room := testRoom(pc)
		startTestGame(t, room, 42)
		sess := room.Session

		assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
		assert.Equal(t, 1, sess.MissionNumber)
		assert.Equal(t, 0, sess.CurrentLeaderIdx)
		assert.Len(t, sess.RolesInGame, pc)
		assert.Len(t, sess.AssignedRoles, pc)
		assert.Equal(t, []string{RESULT_PENDING, RESULT_PENDING, RESULT_PENDING, RESULT_PENDING, RESULT_PENDING}, sess.QuestTrack)
		assert.Len(t, sess.MissionTeamSizes, 5)

		// Randomization off: seating must match the lobby order.
		assert.Equal(t, room.LobbyOrder, sess.PlayerOrder)
		for _, name := range sess.PlayerOrder {
			assert.NotEmpty(t, sess.AssignedRoles[name])
		}
	}
}

func TestStartSessionSeerHolder(t *testing.T) {
	t.Parallel()

	room := testRoom(7)
	room.Settings.UseSeer = true
	startTestGame(t, room, 7)
	sess := room.Session

	require.NotEmpty(t, sess.SeerHolder)
	assert.False(t, IsEvilRole(sess.AssignedRoles[sess.SeerHolder]), "initial seer holder must be good")
	assert.Contains(t, sess.SeerUsedOn, sess.SeerHolder)

	// Too small a table: the mechanic stays off even when enabled.
	small := testRoom(5)
	small.Settings.UseSeer = true
	startTestGame(t, small, 7)
	assert.Empty(t, small.Session.SeerHolder)
}

// The seating shuffle and the role shuffle must be independent draws: over
// many deals, where a player sits says nothing about what card they hold.
func TestStartSessionShuffleIndependence(t *testing.T) {
	t.Parallel()

	const trials = 5000
	seatCounts := make([]int, 5)
	merlinBySeat := make([]int, 5)

	for trial := 0; trial < trials; trial++ {
		room := testRoom(5)
		room.Settings.RandomizeOrder = true
		room.Session = startSession(room, rand.New(rand.NewSource(int64(trial))), testStart)
		sess := room.Session

		seat := -1
		for i, name := range sess.PlayerOrder {
			if name == "alice" {
				seat = i
				break
			}
		}
		require.GreaterOrEqual(t, seat, 0)
		seatCounts[seat]++
		if sess.AssignedRoles["alice"] == ROLE_MERLIN {
			merlinBySeat[seat]++
		}
	}

	for seat := 0; seat < 5; seat++ {
		// Seat frequency ~uniform at 1/5.
		assert.InDelta(t, trials/5, seatCounts[seat], float64(trials)*0.04,
			"alice's seat %d frequency", seat)
		// Merlin frequency ~1/5 regardless of seat.
		assert.InDelta(t, 0.2, float64(merlinBySeat[seat])/float64(seatCounts[seat]), 0.06,
			"merlin rate at seat %d", seat)
	}
}

func TestProposeTeamPreconditions(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	// Not the leader: no-op.
	room.applyAction("bob", ACTION_PROPOSE_TEAM, ActionValue{Team: []string{"alice", "bob"}}, testStart)
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)

	// Wrong team size for mission 1 (needs 2): no-op.
	room.applyAction("alice", ACTION_PROPOSE_TEAM, ActionValue{Team: []string{"alice", "bob", "carol"}}, testStart)
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)

	// Unknown or duplicated names: no-op.
	room.applyAction("alice", ACTION_PROPOSE_TEAM, ActionValue{Team: []string{"alice", "zorro"}}, testStart)
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
	room.applyAction("alice", ACTION_PROPOSE_TEAM, ActionValue{Team: []string{"alice", "alice"}}, testStart)
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)

	// Valid proposal moves to the team vote with a clean ballot box.
	room.applyAction("alice", ACTION_PROPOSE_TEAM, ActionValue{Team: []string{"alice", "bob"}}, testStart)
	assert.Equal(t, PHASE_TEAM_VOTE, sess.Phase)
	assert.Equal(t, []string{"alice", "bob"}, sess.TeamProposal)
	assert.Empty(t, sess.Votes)
}

func TestTeamVoteApproval(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session
	sess.VoteRejectCount = 2

	proposeTeam(room, "alice", "bob")
	for _, name := range []string{"alice", "bob", "carol"} {
		room.applyAction(name, ACTION_VOTE_TEAM, ActionValue{Vote: VOTE_APPROVE}, testStart)
	}
	for _, name := range []string{"dave", "eve"} {
		room.applyAction(name, ACTION_VOTE_TEAM, ActionValue{Vote: VOTE_REJECT}, testStart)
	}

	// 3 of 5 is a strict majority.
	assert.Equal(t, PHASE_MISSION_VOTE, sess.Phase)
	assert.Equal(t, 0, sess.VoteRejectCount, "approval resets the rejection streak")
	assert.Empty(t, sess.MissionVotes)
	assert.Len(t, sess.LastVoteDetails, 5)
}

func TestTeamVoteExactHalfRejects(t *testing.T) {
	t.Parallel()

	room := testRoom(6)
	startTestGame(t, room, 1)
	sess := room.Session

	proposeTeam(room, "alice", "bob")
	for i, p := range room.Players {
		vote := VOTE_APPROVE
		if i >= 3 {
			vote = VOTE_REJECT
		}
		room.applyAction(p.Name, ACTION_VOTE_TEAM, ActionValue{Vote: vote}, testStart)
	}

	// 3 of 6 is not strictly more than half: rejected, leader rotates.
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
	assert.Equal(t, 1, sess.VoteRejectCount)
	assert.Equal(t, "bob", sess.Leader())
	assert.Empty(t, sess.TeamProposal)
}

func TestTeamVoteOverwriteBeforeResolution(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	proposeTeam(room, "alice", "bob")
	room.applyAction("alice", ACTION_VOTE_TEAM, ActionValue{Vote: VOTE_REJECT}, testStart)
	room.applyAction("alice", ACTION_VOTE_TEAM, ActionValue{Vote: VOTE_APPROVE}, testStart)
	assert.Equal(t, VOTE_APPROVE, sess.Votes["alice"])
	assert.Equal(t, PHASE_TEAM_VOTE, sess.Phase, "must not resolve until every seat voted")
}

func TestTeamVoteResolutionIdempotent(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	proposeTeam(room, "alice", "bob")
	voteAll(room, VOTE_APPROVE)
	require.Equal(t, PHASE_MISSION_VOTE, sess.Phase)
	leaderBefore := sess.Leader()

	// The completion trigger must not re-fire on an already-resolved round.
	room.checkVoteComplete(testStart)
	room.checkVoteComplete(testStart)
	assert.Equal(t, PHASE_MISSION_VOTE, sess.Phase)
	assert.Equal(t, leaderBefore, sess.Leader())
	assert.Equal(t, 1, sess.MissionNumber)
}

func TestFiveRejectionsEndGame(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	for i := 0; i < 5; i++ {
		require.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
		proposeTeam(room, "alice", "bob")
		voteAll(room, VOTE_REJECT)
	}

	assert.Equal(t, PHASE_END, sess.Phase)
	assert.Equal(t, 5, sess.VoteRejectCount)
	require.NotNil(t, sess.GameOverData)
	assert.Equal(t, FACTION_EVIL, sess.GameOverData.WinningTeam)
	assert.Len(t, sess.GameOverData.AllRoles, 5)
}

func TestMissionVoteMembersOnly(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	proposeTeam(room, "alice", "bob")
	voteAll(room, VOTE_APPROVE)
	require.Equal(t, PHASE_MISSION_VOTE, sess.Phase)

	room.applyAction("carol", ACTION_MISSION_VOTE, ActionValue{Vote: MISSION_FAIL}, testStart)
	assert.Empty(t, sess.MissionVotes, "only proposed team members may play a card")

	room.applyAction("alice", ACTION_MISSION_VOTE, ActionValue{Vote: MISSION_SUCCESS}, testStart)
	room.applyAction("bob", ACTION_MISSION_VOTE, ActionValue{Vote: MISSION_SUCCESS}, testStart)
	assert.Equal(t, MISSION_SUCCESS, sess.QuestTrack[0])
	assert.Equal(t, 2, sess.MissionNumber)
	assert.Equal(t, "bob", sess.Leader(), "leader rotates into the next mission")
	assert.Nil(t, sess.LastVoteDetails, "vote breakdown clears with the new round")
}

func TestMissionFailThresholdFivePlayers(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	playMission(t, room, []string{"alice", "bob"}, map[string]string{"alice": MISSION_FAIL})
	assert.Equal(t, MISSION_FAIL, sess.QuestTrack[0], "one fail sinks every 5-player mission")
	require.Len(t, sess.MissionHistory, 1)
	assert.Equal(t, 1, sess.MissionHistory[0].Fails)
	assert.Equal(t, "alice", sess.MissionHistory[0].Leader)
}

func TestMissionFourTwoFailsRequired(t *testing.T) {
	t.Parallel()

	// 7-player mission 4 survives a single fail card...
	room := testRoom(7)
	startTestGame(t, room, 1)
	sess := room.Session
	sess.MissionNumber = 4
	sess.QuestTrack = []string{MISSION_SUCCESS, MISSION_FAIL, MISSION_SUCCESS, RESULT_PENDING, RESULT_PENDING}

	playMission(t, room, []string{"alice", "bob", "carol", "dave"}, map[string]string{"dave": MISSION_FAIL})
	assert.Equal(t, MISSION_SUCCESS, sess.QuestTrack[3])

	// ...but not two.
	room = testRoom(7)
	startTestGame(t, room, 1)
	sess = room.Session
	sess.MissionNumber = 4
	sess.QuestTrack = []string{MISSION_SUCCESS, MISSION_FAIL, MISSION_SUCCESS, RESULT_PENDING, RESULT_PENDING}

	playMission(t, room, []string{"alice", "bob", "carol", "dave"},
		map[string]string{"carol": MISSION_FAIL, "dave": MISSION_FAIL})
	assert.Equal(t, MISSION_FAIL, sess.QuestTrack[3])
	require.Len(t, sess.MissionHistory, 1)
	assert.Equal(t, 2, sess.MissionHistory[0].Fails)
}

func TestThreeFailedMissionsEvilWins(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	playMission(t, room, []string{"alice", "bob"}, map[string]string{"alice": MISSION_FAIL})
	playMission(t, room, []string{"alice", "bob", "carol"}, map[string]string{"alice": MISSION_FAIL})
	playMission(t, room, []string{"alice", "bob"}, map[string]string{"alice": MISSION_FAIL})

	assert.Equal(t, PHASE_END, sess.Phase)
	require.NotNil(t, sess.GameOverData)
	assert.Equal(t, FACTION_EVIL, sess.GameOverData.WinningTeam)
}

func TestThreeSuccessesWithAssassinOpensAssassination(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session
	// Stock 5-player deal includes the assassin.
	require.Contains(t, sess.RolesInGame, ROLE_ASSASSIN)

	playMission(t, room, []string{"alice", "bob"}, nil)
	playMission(t, room, []string{"alice", "bob", "carol"}, nil)
	playMission(t, room, []string{"alice", "bob"}, nil)

	assert.Equal(t, PHASE_ASSASSINATION, sess.Phase, "the win hangs on the assassin's shot")
	assert.Nil(t, sess.GameOverData)
}

func TestThreeSuccessesWithoutAssassinGoodWins(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session
	dealRoles(t, room, []string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_MORGANA, ROLE_MORDRED})

	playMission(t, room, []string{"alice", "bob"}, nil)
	playMission(t, room, []string{"alice", "bob", "carol"}, nil)
	playMission(t, room, []string{"alice", "bob"}, nil)

	assert.Equal(t, PHASE_END, sess.Phase)
	require.NotNil(t, sess.GameOverData)
	assert.Equal(t, FACTION_GOOD, sess.GameOverData.WinningTeam)
}

func TestAssassinationOutcomes(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *Room {
		room := testRoom(5)
		startTestGame(t, room, 1)
		dealRoles(t, room, []string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_MORGANA, ROLE_ASSASSIN})
		room.Session.Phase = PHASE_ASSASSINATION
		return room
	}

	t.Run("correct target kills the good win", func(t *testing.T) {
		room := setup(t)
		later := testStart.Add(10 * time.Minute)
		room.applyAction("eve", ACTION_ASSASSINATE, ActionValue{Target: "alice"}, later)

		sess := room.Session
		require.Equal(t, PHASE_END, sess.Phase)
		assert.Equal(t, FACTION_EVIL, sess.GameOverData.WinningTeam)
		assert.Equal(t, int64(10*time.Minute/time.Millisecond), sess.GameOverData.Duration)
	})

	t.Run("wrong target seals the good win", func(t *testing.T) {
		room := setup(t)
		room.applyAction("eve", ACTION_ASSASSINATE, ActionValue{Target: "carol"}, testStart.Add(time.Second))

		sess := room.Session
		require.Equal(t, PHASE_END, sess.Phase)
		assert.Equal(t, FACTION_GOOD, sess.GameOverData.WinningTeam)
		assert.GreaterOrEqual(t, sess.GameOverData.Duration, int64(0))
	})
}

func TestSeerRevealFlow(t *testing.T) {
	t.Parallel()

	room := testRoom(7)
	room.Settings.UseSeer = true
	startTestGame(t, room, 1)
	sess := room.Session
	dealRoles(t, room, []string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT, ROLE_MORGANA, ROLE_ASSASSIN, ROLE_OBERON})
	sess.SeerHolder = "alice"
	sess.SeerUsedOn = []string{"alice"}

	// Mission 1 never triggers the seer.
	playMission(t, room, []string{"alice", "bob"}, map[string]string{"alice": MISSION_FAIL})
	require.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
	require.Equal(t, 2, sess.MissionNumber)

	// Mission 2 does.
	playMission(t, room, []string{"alice", "bob", "carol"}, nil)
	require.Equal(t, PHASE_SEER_REVEAL, sess.Phase)

	// Only the holder may examine, and never themselves.
	room.applyAction("bob", ACTION_USE_SEER, ActionValue{Target: "eve"}, testStart)
	require.Equal(t, PHASE_SEER_REVEAL, sess.Phase)
	room.applyAction("alice", ACTION_USE_SEER, ActionValue{Target: "alice"}, testStart)
	require.Equal(t, PHASE_SEER_REVEAL, sess.Phase)

	// Examining Morgana reveals evil and passes the title on.
	room.applyAction("alice", ACTION_USE_SEER, ActionValue{Target: "eve"}, testStart)
	rev, ok := sess.takeSeerReveal("alice")
	require.True(t, ok)
	assert.Equal(t, "eve", rev.Target)
	assert.Equal(t, FACTION_EVIL, rev.Faction)
	assert.Equal(t, "eve", sess.SeerHolder)
	assert.Equal(t, []int{2}, sess.SeerUsedMissions)
	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
	assert.Equal(t, 3, sess.MissionNumber)

	// The reveal is one-shot.
	_, ok = sess.takeSeerReveal("alice")
	assert.False(t, ok)

	// Next eligible mission: previously examined names are off limits.
	playMission(t, room, []string{"alice", "bob", "carol"}, nil)
	require.Equal(t, PHASE_SEER_REVEAL, sess.Phase)
	room.applyAction("eve", ACTION_USE_SEER, ActionValue{Target: "alice"}, testStart)
	assert.Equal(t, PHASE_SEER_REVEAL, sess.Phase, "re-targeting an examined player is a no-op")
	room.applyAction("eve", ACTION_USE_SEER, ActionValue{Target: "carol"}, testStart)
	rev, ok = sess.takeSeerReveal("eve")
	require.True(t, ok)
	assert.Equal(t, FACTION_GOOD, rev.Faction)
}

func TestActionsInWrongPhaseAreNoOps(t *testing.T) {
	t.Parallel()

	room := testRoom(5)
	startTestGame(t, room, 1)
	sess := room.Session

	room.applyAction("alice", ACTION_VOTE_TEAM, ActionValue{Vote: VOTE_APPROVE}, testStart)
	room.applyAction("alice", ACTION_MISSION_VOTE, ActionValue{Vote: MISSION_FAIL}, testStart)
	room.applyAction("alice", ACTION_ASSASSINATE, ActionValue{Target: "bob"}, testStart)
	room.applyAction("alice", ACTION_USE_SEER, ActionValue{Target: "bob"}, testStart)
	room.applyAction("alice", "no_such_action", ActionValue{}, testStart)

	assert.Equal(t, PHASE_TEAM_BUILDING, sess.Phase)
	assert.Empty(t, sess.Votes)
	assert.Empty(t, sess.MissionVotes)
	assert.Nil(t, sess.GameOverData)
}
