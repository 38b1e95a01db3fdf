package game

import (
	"math/rand"
	"sync"
)

// Room codes avoid O/0 lookalikes so they survive being read out loud.
const roomCodeAlphabet = "ABCDEFGHIJKLMNPQRSTUVWXYZ123456789"
const roomCodeLength = 5

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type Idgen struct {
	ids    map[string]struct{}
	rng    *rand.Rand
	locker sync.Mutex
}

func NewIdGen(rng *rand.Rand) *Idgen {
	return &Idgen{
		ids: make(map[string]struct{}),
		rng: rng,
	}
}

// Generate returns a room code not currently in use and reserves it.
func (idgen *Idgen) Generate() string {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()

	for {
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = roomCodeAlphabet[idgen.rng.Intn(len(roomCodeAlphabet))]
		}
		code := string(buf)
		if _, taken := idgen.ids[code]; !taken {
			idgen.ids[code] = struct{}{}
			return code
		}
	}
}

// Dispose releases a code so it can be handed out again.
func (idgen *Idgen) Dispose(id string) {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()
	delete(idgen.ids, id)
}
