package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Dongshan-Salmon/webgame/logger"
)

// Action kinds accepted by the in-game dispatcher.
const (
	ACTION_PROPOSE_TEAM = "propose_team"
	ACTION_VOTE_TEAM    = "vote_team"
	ACTION_MISSION_VOTE = "mission_vote"
	ACTION_USE_SEER     = "use_seer"
	ACTION_ASSASSINATE  = "assassinate"
)

// ActionValue is the payload half of an action envelope. Only the field
// matching the action kind is consulted.
type ActionValue struct {
	Team   []string `json:"team"`
	Vote   string   `json:"vote"`
	Target string   `json:"target"`
}

// startSession deals a new game for the seated players. The seating order
// and the role multiset are shuffled as two separate draws from rng;
// reusing one permutation for both would correlate seats with roles.
func startSession(room *Room, rng *rand.Rand, now time.Time) *Session {
	order := append([]string(nil), room.LobbyOrder...)
	if room.Settings.RandomizeOrder {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	roles := append([]string(nil), room.Settings.Roles...)
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	assigned := make(map[string]string, len(order))
	for i, name := range order {
		assigned[name] = roles[i]
	}

	sess := &Session{
		Phase:            PHASE_TEAM_BUILDING,
		PlayerOrder:      order,
		AssignedRoles:    assigned,
		RolesInGame:      roles,
		CurrentLeaderIdx: 0,
		MissionNumber:    1,
		QuestTrack:       []string{RESULT_PENDING, RESULT_PENDING, RESULT_PENDING, RESULT_PENDING, RESULT_PENDING},
		MissionTeamSizes: append([]int(nil), room.Settings.MissionTrack...),
		TeamProposal:     []string{},
		Votes:            make(map[string]string),
		MissionVotes:     make(map[string]string),
		seerReveals:      make(map[string]seerReveal),
		GameStartTime:    now,
	}

	// The seer title starts on a random good player, and only exists in
	// larger games where the extra information does not break the balance.
	if room.Settings.UseSeer && len(order) >= 7 {
		var good []string
		for _, name := range order {
			if !IsEvilRole(assigned[name]) {
				good = append(good, name)
			}
		}
		if len(good) > 0 {
			sess.SeerHolder = good[rng.Intn(len(good))]
			sess.SeerUsedOn = append(sess.SeerUsedOn, sess.SeerHolder)
		}
	}

	return sess
}

// applyAction dispatches one player action by (phase, kind). Precondition
// failures leave the session untouched and report nothing: a stale or
// malicious client gets a no-op, never an error.
func (r *Room) applyAction(actor, action string, value ActionValue, now time.Time) {
	sess := r.Session
	if sess == nil {
		return
	}

	switch {
	case action == ACTION_PROPOSE_TEAM && sess.Phase == PHASE_TEAM_BUILDING:
		r.proposeTeam(actor, value.Team)

	case action == ACTION_VOTE_TEAM && sess.Phase == PHASE_TEAM_VOTE:
		if value.Vote != VOTE_APPROVE && value.Vote != VOTE_REJECT {
			return
		}
		sess.Votes[actor] = value.Vote
		if len(sess.Votes) >= r.PlayerCount() {
			r.resolveTeamVote(now)
		}

	case action == ACTION_MISSION_VOTE && sess.Phase == PHASE_MISSION_VOTE:
		if value.Vote != MISSION_SUCCESS && value.Vote != MISSION_FAIL {
			return
		}
		if !sess.onProposedTeam(actor) {
			return
		}
		sess.MissionVotes[actor] = value.Vote
		if len(sess.MissionVotes) >= len(sess.TeamProposal) {
			r.resolveMissionVote(now)
		}

	case action == ACTION_USE_SEER && sess.Phase == PHASE_SEER_REVEAL:
		r.useSeer(actor, value.Target)

	case action == ACTION_ASSASSINATE && sess.Phase == PHASE_ASSASSINATION:
		r.assassinate(actor, value.Target, now)
	}
}

func (r *Room) proposeTeam(actor string, team []string) {
	sess := r.Session
	if actor != sess.Leader() {
		return
	}
	if len(team) != sess.MissionTeamSizes[sess.MissionNumber-1] {
		return
	}
	seen := make(map[string]bool, len(team))
	for _, name := range team {
		// A proposal naming ghosts would deadlock the mission vote.
		if r.PlayerByName(name) == nil || seen[name] {
			return
		}
		seen[name] = true
	}

	sess.TeamProposal = append([]string(nil), team...)
	sess.Votes = make(map[string]string)
	sess.Phase = PHASE_TEAM_VOTE
	logger.Debugf("[Room %s] Mission %d team proposed by %s: %v", r.Code, sess.MissionNumber, actor, team)
}

// resolveTeamVote tallies the team vote once every seat has one. Strict
// majority approves; anything else counts as a rejection and rotates the
// leader. The fifth consecutive rejection hands evil the game.
func (r *Room) resolveTeamVote(now time.Time) {
	sess := r.Session
	pc := r.PlayerCount()

	approves := 0
	for _, v := range sess.Votes {
		if v == VOTE_APPROVE {
			approves++
		}
	}

	details := make([]VoteDetail, 0, pc)
	for _, p := range r.Players {
		details = append(details, VoteDetail{Name: p.Name, Vote: sess.Votes[p.Name]})
	}
	sess.LastVoteDetails = details

	if 2*approves > pc {
		sess.Phase = PHASE_MISSION_VOTE
		sess.MissionVotes = make(map[string]string)
		sess.VoteRejectCount = 0
		logger.Debugf("[Room %s] Mission %d team approved (%d/%d)", r.Code, sess.MissionNumber, approves, pc)
		return
	}

	logger.Debugf("[Room %s] Mission %d team rejected (%d/%d)", r.Code, sess.MissionNumber, approves, pc)
	r.rotateLeaderAfterRejection(now)
}

func (r *Room) rotateLeaderAfterRejection(now time.Time) {
	sess := r.Session
	sess.VoteRejectCount++
	if sess.VoteRejectCount >= 5 {
		r.endGame(FACTION_EVIL, "Five consecutive team proposals were rejected.", now)
		return
	}
	sess.CurrentLeaderIdx = (sess.CurrentLeaderIdx + 1) % r.PlayerCount()
	sess.Phase = PHASE_TEAM_BUILDING
	sess.TeamProposal = []string{}
	sess.Votes = make(map[string]string)
}

// resolveMissionVote records the mission outcome once every team member has
// played a card, then routes to the post-mission evaluation.
func (r *Room) resolveMissionVote(now time.Time) {
	sess := r.Session

	fails := 0
	for _, v := range sess.MissionVotes {
		if v == MISSION_FAIL {
			fails++
		}
	}

	result := MISSION_SUCCESS
	if fails >= FailThreshold(r.PlayerCount(), sess.MissionNumber) {
		result = MISSION_FAIL
	}
	sess.QuestTrack[sess.MissionNumber-1] = result
	sess.MissionHistory = append(sess.MissionHistory, MissionRecord{
		MissionNum: sess.MissionNumber,
		Leader:     sess.Leader(),
		Team:       append([]string(nil), sess.TeamProposal...),
		Result:     result,
		Fails:      fails,
	})
	logger.Debugf("[Room %s] Mission %d resolved: %s (%d fail votes)", r.Code, sess.MissionNumber, result, fails)

	r.evaluateAfterMission(now)
}

// evaluateAfterMission decides what the just-recorded mission means: a win
// for either side, an assassination window, a seer examination, or simply
// the next mission.
func (r *Room) evaluateAfterMission(now time.Time) {
	sess := r.Session

	fails, successes := 0, 0
	for _, q := range sess.QuestTrack {
		switch q {
		case MISSION_FAIL:
			fails++
		case MISSION_SUCCESS:
			successes++
		}
	}

	if fails >= 3 {
		r.endGame(FACTION_EVIL, "Evil secured three failed missions.", now)
		return
	}
	if successes >= 3 {
		for _, role := range sess.RolesInGame {
			if role == ROLE_ASSASSIN {
				sess.Phase = PHASE_ASSASSINATION
				return
			}
		}
		r.endGame(FACTION_GOOD, "Good completed three missions with no assassin in play.", now)
		return
	}

	mn := sess.MissionNumber
	if sess.SeerHolder != "" && mn >= 2 && mn <= 4 && !sess.seerUsedThisMission(mn) {
		sess.Phase = PHASE_SEER_REVEAL
		return
	}

	r.advanceMission()
}

// advanceMission opens the next mission's team building round.
func (r *Room) advanceMission() {
	sess := r.Session
	sess.MissionNumber++
	sess.CurrentLeaderIdx = (sess.CurrentLeaderIdx + 1) % r.PlayerCount()
	sess.Phase = PHASE_TEAM_BUILDING
	sess.TeamProposal = []string{}
	sess.Votes = make(map[string]string)
	sess.LastVoteDetails = nil
}

func (r *Room) useSeer(actor, target string) {
	sess := r.Session
	if actor != sess.SeerHolder {
		return
	}
	if target == actor || sess.seerAlreadyUsedOn(target) {
		return
	}
	targetRole, ok := sess.AssignedRoles[target]
	if !ok {
		return
	}

	sess.seerReveals[actor] = seerReveal{
		Target:  target,
		Faction: RoleFaction(targetRole),
	}
	sess.SeerHolder = target
	sess.SeerUsedMissions = append(sess.SeerUsedMissions, sess.MissionNumber)
	sess.SeerUsedOn = append(sess.SeerUsedOn, target)
	logger.Debugf("[Room %s] Seer passed from %s to %s after mission %d", r.Code, actor, target, sess.MissionNumber)

	r.advanceMission()
}

// assassinate settles the endgame gamble. Any seated player may submit the
// shot; restricting it to the assassin's seat would tell everyone who the
// assassin is, so the table is trusted to let the right player answer.
func (r *Room) assassinate(actor, target string, now time.Time) {
	sess := r.Session

	merlin := ""
	for _, name := range sess.PlayerOrder {
		if sess.AssignedRoles[name] == ROLE_MERLIN {
			merlin = name
			break
		}
	}

	if merlin != "" && target == merlin {
		r.endGame(FACTION_EVIL, fmt.Sprintf("%s struck true: %s was Merlin.", actor, target), now)
	} else {
		r.endGame(FACTION_GOOD, fmt.Sprintf("%s missed: %s was not Merlin.", actor, target), now)
	}
}

func (r *Room) endGame(winner, reason string, now time.Time) {
	sess := r.Session
	sess.Phase = PHASE_END

	roster := make([]RosterEntry, 0, len(sess.PlayerOrder))
	for _, name := range sess.PlayerOrder {
		role := sess.AssignedRoles[name]
		roster = append(roster, RosterEntry{
			Name:    name,
			Role:    role,
			Faction: RoleFaction(role),
		})
	}

	sess.GameOverData = &GameOverData{
		WinningTeam: winner,
		Reason:      reason,
		Duration:    now.Sub(sess.GameStartTime).Milliseconds(),
		AllRoles:    roster,
	}
	logger.Infof("[Room %s] Game over: %s wins. %s", r.Code, winner, reason)
}

// checkVoteComplete re-runs the resolution trigger for the current phase.
// It only fires when the vote set is actually complete, so calling it after
// a resolution already happened is a no-op rather than a double advance.
func (r *Room) checkVoteComplete(now time.Time) {
	sess := r.Session
	if sess == nil {
		return
	}
	switch sess.Phase {
	case PHASE_TEAM_VOTE:
		if len(sess.Votes) >= r.PlayerCount() {
			r.resolveTeamVote(now)
		}
	case PHASE_MISSION_VOTE:
		if len(sess.MissionVotes) >= len(sess.TeamProposal) {
			r.resolveMissionVote(now)
		}
	}
}
