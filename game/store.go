package game

import "sync"

// Store holds every live room behind one mutex. Client actions and the
// background sweep serialize on it, so a room is never observed half
// mutated. One lock for all rooms is deliberate: correct at the target
// scale, and the Update/Sweep callbacks keep callers ignorant of the
// locking scheme so a per-room lock could replace it without touching
// them.
type Store struct {
	locker sync.Mutex
	rooms  map[string]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// Insert registers a room under its code.
func (s *Store) Insert(room *Room) {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.rooms[room.Code] = room
}

// Update runs fn on the named room under the store lock. The callback may
// mutate the room freely; returning an error propagates it unchanged.
func (s *Store) Update(code string, fn func(room *Room) error) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	return fn(room)
}

// Modify is Update for callbacks that may also ask for the room's
// removal, in the same critical section.
func (s *Store) Modify(code string, fn func(room *Room) (remove bool, err error)) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	remove, err := fn(room)
	if remove {
		delete(s.rooms, code)
	}
	return err
}

// UpdateAny runs fn over all rooms until it reports done, still under the
// single lock. Used by join-without-code to pick a public room.
func (s *Store) UpdateAny(fn func(room *Room) (done bool)) {
	s.locker.Lock()
	defer s.locker.Unlock()

	for _, room := range s.rooms {
		if fn(room) {
			return
		}
	}
}

// Sweep runs fn on every room and deletes the ones it flags. Codes of the
// deleted rooms are returned so the caller can release them.
func (s *Store) Sweep(fn func(room *Room) (remove bool)) []string {
	s.locker.Lock()
	defer s.locker.Unlock()

	var removed []string
	for code, room := range s.rooms {
		if fn(room) {
			delete(s.rooms, code)
			removed = append(removed, code)
		}
	}
	return removed
}

// Delete drops a room; reports whether it existed.
func (s *Store) Delete(code string) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	_, ok := s.rooms[code]
	delete(s.rooms, code)
	return ok
}

func (s *Store) Len() int {
	s.locker.Lock()
	defer s.locker.Unlock()
	return len(s.rooms)
}
