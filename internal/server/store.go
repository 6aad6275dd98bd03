package server

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store holds every active room, keyed by uppercase room code.
// Its mutex is the only serialization point for room mutations: every
// state transition runs inside UpdateGame so concurrent commands from
// different connections are applied one at a time.
type Store struct {
	mu           sync.Mutex
	nextPlayerID int
	games        map[string]*Game
}

func NewStore() *Store {
	return &Store{
		nextPlayerID: 1,
		games:        make(map[string]*Game),
	}
}

func (s *Store) CreateGame(roomCode string, roundLimit, maxPlayers int) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := strings.ToUpper(roomCode)
	if _, exists := s.games[code]; exists {
		return nil, errors.New("room code already in use")
	}
	game := &Game{
		RoomCode:       code,
		Phase:          phaseLobby,
		PhaseStartedAt: timeNowUTC(),
		RoundLimit:     roundLimit,
		MaxPlayers:     maxPlayers,
	}
	s.games[code] = game
	return game, nil
}

func (s *Store) GetGame(roomCode string) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[strings.ToUpper(roomCode)]
	return game, ok
}

func (s *Store) UpdateGame(roomCode string, update func(game *Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[strings.ToUpper(roomCode)]
	if !ok {
		return nil, errors.New("room not found")
	}
	if err := update(game); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *Store) RemoveGame(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, strings.ToUpper(roomCode))
}

// AddPlayer joins a player to a room, creating the room on first join
// to an unused code. A player rejoining under the same name reclaims
// the existing seat instead of taking a second one.
func (s *Store) AddPlayer(roomCode, name string, roundLimit, maxPlayers int) (*Game, *Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := strings.ToUpper(roomCode)
	game, ok := s.games[code]
	created := false
	if !ok {
		game = &Game{
			RoomCode:       code,
			Phase:          phaseLobby,
			PhaseStartedAt: timeNowUTC(),
			RoundLimit:     roundLimit,
			MaxPlayers:     maxPlayers,
		}
		s.games[code] = game
		created = true
	}

	for i := range game.Players {
		if strings.EqualFold(game.Players[i].Name, name) {
			return game, &game.Players[i], created, nil
		}
	}
	if game.Phase == phaseResults {
		return nil, nil, false, errors.New("game already finished")
	}
	if game.MaxPlayers > 0 && len(game.Players) >= game.MaxPlayers {
		return nil, nil, false, errors.New("room full")
	}

	player := Player{
		ID:       s.nextPlayerID,
		Name:     name,
		JoinedAt: timeNowUTC(),
	}
	s.nextPlayerID++
	game.Players = append(game.Players, player)
	return game, &game.Players[len(game.Players)-1], created, nil
}

func (s *Store) FindPlayer(game *Game, playerID int) (*Player, bool) {
	for i := range game.Players {
		if game.Players[i].ID == playerID {
			return &game.Players[i], true
		}
	}
	return nil, false
}

func (s *Store) GetPlayer(roomCode string, playerID int) (*Game, *Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[strings.ToUpper(roomCode)]
	if !ok {
		return nil, nil, false
	}
	for i := range game.Players {
		if game.Players[i].ID == playerID {
			return game, &game.Players[i], true
		}
	}
	return game, nil, false
}

func (s *Store) ListRoomSummaries() []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoomSummary, 0, len(s.games))
	for _, game := range s.games {
		list = append(list, RoomSummary{
			RoomCode: game.RoomCode,
			Phase:    game.Phase,
			Round:    game.Round,
			Players:  len(game.Players),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].RoomCode < list[j].RoomCode
	})
	return list
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
