package game

// Role names. The catalog holds 8 good and 8 evil slots; servant and minion
// slots repeat so a full 10-player game can be dealt from it.
const (
	ROLE_MERLIN   = "Merlin"
	ROLE_PERCIVAL = "Percival"
	ROLE_SERVANT  = "Loyal Servant"
	ROLE_MORGANA  = "Morgana"
	ROLE_ASSASSIN = "Assassin"
	ROLE_MORDRED  = "Mordred"
	ROLE_OBERON   = "Oberon"
	ROLE_MINION   = "Minion of Mordred"
)

const (
	FACTION_GOOD = "good"
	FACTION_EVIL = "evil"
)

var GoodRolePool = []string{
	ROLE_MERLIN, ROLE_PERCIVAL,
	ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT,
}

var EvilRolePool = []string{
	ROLE_MORGANA, ROLE_ASSASSIN, ROLE_MORDRED, ROLE_OBERON,
	ROLE_MINION, ROLE_MINION, ROLE_MINION, ROLE_MINION,
}

var evilRoleNames = map[string]bool{
	ROLE_MORGANA:  true,
	ROLE_ASSASSIN: true,
	ROLE_MORDRED:  true,
	ROLE_OBERON:   true,
	ROLE_MINION:   true,
}

// defaultRoleConfig is the stock deal per seated player count.
var defaultRoleConfig = map[int]struct {
	good []string
	evil []string
}{
	5:  {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN}},
	6:  {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN}},
	7:  {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN, ROLE_OBERON}},
	8:  {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN, ROLE_MORDRED}},
	9:  {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN, ROLE_MORDRED}},
	10: {[]string{ROLE_MERLIN, ROLE_PERCIVAL, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT, ROLE_SERVANT}, []string{ROLE_MORGANA, ROLE_ASSASSIN, ROLE_MORDRED, ROLE_OBERON}},
}

// missionSizes maps seated player count to the 5-mission team size track.
var missionSizes = map[int][]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// twoFailsMission maps seated player count to the one mission number that
// needs two fail votes to fail. Counts below 7 have no such mission.
var twoFailsMission = map[int]int{7: 4, 8: 4, 9: 4, 10: 4}

func IsEvilRole(role string) bool {
	return evilRoleNames[role]
}

func RoleFaction(role string) string {
	if IsEvilRole(role) {
		return FACTION_EVIL
	}
	return FACTION_GOOD
}

// DefaultRoles returns the stock role selection for a player count, good
// roles first. The second return is false for unsupported counts.
func DefaultRoles(playerCount int) ([]string, bool) {
	cfg, ok := defaultRoleConfig[playerCount]
	if !ok {
		return nil, false
	}
	roles := make([]string, 0, len(cfg.good)+len(cfg.evil))
	roles = append(roles, cfg.good...)
	roles = append(roles, cfg.evil...)
	return roles, true
}

// DefaultMissionTrack returns a copy of the stock team-size track.
func DefaultMissionTrack(playerCount int) ([]int, bool) {
	track, ok := missionSizes[playerCount]
	if !ok {
		return nil, false
	}
	out := make([]int, len(track))
	copy(out, track)
	return out, true
}

// FailThreshold is the number of fail votes that sinks the given mission.
func FailThreshold(playerCount, missionNumber int) int {
	if twoFailsMission[playerCount] == missionNumber {
		return 2
	}
	return 1
}

func splitByFaction(roles []string) (good, evil []string) {
	for _, r := range roles {
		if IsEvilRole(r) {
			evil = append(evil, r)
		} else {
			good = append(good, r)
		}
	}
	return good, evil
}
