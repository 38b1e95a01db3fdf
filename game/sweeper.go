package game

import (
	"context"
	"time"

	"github.com/Dongshan-Salmon/webgame/logger"
)

// Sweeper is the recurring background pass that keeps rooms live when
// players go quiet: it ages out heartbeats, removes abandoned lobby seats,
// garbage-collects dead rooms, and synthesizes default actions so no game
// phase can stall on a disconnected player.
type Sweeper struct {
	store           *Store
	codes           UniqueIdGenerator
	tickers         PeriodicTickerChannelCreator
	interval        time.Duration
	disconnectAfter time.Duration
	lobbyKickAfter  time.Duration
	roomMaxAge      time.Duration
	now             func() time.Time
}

func NewSweeper(store *Store, codes UniqueIdGenerator, tickers PeriodicTickerChannelCreator,
	interval, disconnectAfter, lobbyKickAfter, roomMaxAge time.Duration) *Sweeper {
	return &Sweeper{
		store:           store,
		codes:           codes,
		tickers:         tickers,
		interval:        interval,
		disconnectAfter: disconnectAfter,
		lobbyKickAfter:  lobbyKickAfter,
		roomMaxAge:      roomMaxAge,
		now:             time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	ticks := sw.tickers.Create(sw.interval)
	logger.Infof("Presence sweeper running every %s", sw.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Presence sweeper stopped")
			return
		case <-ticks:
			sw.sweepOnce(sw.now())
		}
	}
}

// sweepOnce is one full pass over every room, inside the same critical
// section client actions use.
func (sw *Sweeper) sweepOnce(now time.Time) {
	removed := sw.store.Sweep(func(room *Room) bool {
		if len(room.Players) == 0 {
			return true
		}

		connected := sw.agePresence(room, now)
		sw.resolveAutoActions(room, now)

		if len(room.Players) == 0 {
			return true
		}
		if connected == 0 && now.Sub(room.CreatedAt) > sw.roomMaxAge {
			return true
		}
		return false
	})
	for _, code := range removed {
		sw.codes.Dispose(code)
		logger.Infof("[Room %s] Reaped", code)
	}
}

// agePresence applies the heartbeat thresholds. Lobby players fall through
// two stages: disconnected after the short threshold, removed after the
// long one. In-game players are only ever flagged, never removed, so the
// seating order stays intact. Returns the connected count after flagging.
func (sw *Sweeper) agePresence(room *Room, now time.Time) int {
	var stale []string
	for _, p := range room.Players {
		silent := now.Sub(p.LastSeen)
		switch {
		case room.Session == nil && silent > sw.lobbyKickAfter:
			stale = append(stale, p.Name)
		case silent > sw.disconnectAfter && p.Status == STATUS_CONNECTED:
			p.Status = STATUS_DISCONNECTED
			logger.Debugf("[Room %s] %s marked disconnected", room.Code, p.Name)
		}
	}

	if len(stale) > 0 {
		sw.removeStalePlayers(room, stale)
	}

	connected := 0
	for _, p := range room.Players {
		if p.Status == STATUS_CONNECTED {
			connected++
		}
	}
	return connected
}

func (sw *Sweeper) removeStalePlayers(room *Room, stale []string) {
	staleSet := make(map[string]bool, len(stale))
	for _, name := range stale {
		staleSet[name] = true
	}

	hostRemoved := false
	remaining := room.Players[:0]
	for _, p := range room.Players {
		if staleSet[p.Name] {
			hostRemoved = hostRemoved || p.IsHost
			logger.Infof("[Room %s] %s removed after %s of silence", room.Code, p.Name, sw.lobbyKickAfter)
			continue
		}
		remaining = append(remaining, p)
	}
	room.Players = remaining

	// Keep the host-arranged seating, minus the removed names.
	order := room.LobbyOrder[:0]
	for _, name := range room.LobbyOrder {
		if !staleSet[name] {
			order = append(order, name)
		}
	}
	room.LobbyOrder = order

	if hostRemoved && len(room.Players) > 0 {
		room.Players[0].IsHost = true
		room.Players[0].IsReady = true
	}
}

// resolveAutoActions keeps a session from stalling on absent players:
// a vanished leader forfeits the proposal (counted as a rejection), and
// once every connected voter has spoken, the missing votes default
// (reject for team votes, success for mission cards) and the round
// resolves.
func (sw *Sweeper) resolveAutoActions(room *Room, now time.Time) {
	sess := room.Session
	if sess == nil || room.PlayerCount() == 0 {
		return
	}

	switch sess.Phase {
	case PHASE_TEAM_BUILDING:
		leader := room.PlayerByName(sess.Leader())
		if leader != nil && leader.Status == STATUS_DISCONNECTED {
			logger.Infof("[Room %s] Leader %s is gone; proposal forfeited", room.Code, leader.Name)
			room.rotateLeaderAfterRejection(now)
		}

	case PHASE_TEAM_VOTE:
		if len(sess.Votes) >= room.PlayerCount() {
			return
		}
		for _, p := range room.Players {
			if p.Status == STATUS_CONNECTED {
				if _, voted := sess.Votes[p.Name]; !voted {
					return
				}
			}
		}
		for _, p := range room.Players {
			if p.Status == STATUS_DISCONNECTED {
				if _, voted := sess.Votes[p.Name]; !voted {
					sess.Votes[p.Name] = VOTE_REJECT
					logger.Debugf("[Room %s] Defaulted team vote for %s: reject", room.Code, p.Name)
				}
			}
		}
		room.checkVoteComplete(now)

	case PHASE_MISSION_VOTE:
		if len(sess.MissionVotes) >= len(sess.TeamProposal) {
			return
		}
		for _, name := range sess.TeamProposal {
			p := room.PlayerByName(name)
			if p != nil && p.Status == STATUS_CONNECTED {
				if _, voted := sess.MissionVotes[name]; !voted {
					return
				}
			}
		}
		for _, name := range sess.TeamProposal {
			p := room.PlayerByName(name)
			if p != nil && p.Status == STATUS_DISCONNECTED {
				if _, voted := sess.MissionVotes[name]; !voted {
					sess.MissionVotes[name] = MISSION_SUCCESS
					logger.Debugf("[Room %s] Defaulted mission vote for %s: success", room.Code, name)
				}
			}
		}
		room.checkVoteComplete(now)
	}
}
