package server

import "errors"

// Projection is one connection's local mirror of room state. It is
// never authoritative: broadcasts overwrite it, local edits do not
// exist. Patch application is a shallow merge, so replaying the same
// patch is harmless and fields missing from a patch keep their value.
type Projection struct {
	RoomCode      string
	Phase         string
	Round         int
	TimeRemaining int
	CurrentPhoto  *PhotoView
	Roster        []PresenceEntry
	Scores        map[int]int
}

func NewProjection(roomCode string) *Projection {
	return &Projection{
		RoomCode: roomCode,
		Phase:    phaseLobby,
		Scores:   make(map[int]int),
	}
}

// Apply dispatches a validated envelope into the projection.
func (p *Projection) Apply(env Envelope) error {
	switch env.Type {
	case msgStatePatch:
		if env.Patch == nil {
			return errors.New("state_patch without patch payload")
		}
		p.applyPatch(*env.Patch)
	case msgPresenceSync:
		p.applyPresence(env.Presence)
	case msgJoinAnnounce:
		// Roster membership comes from presence syncs; a join announce
		// on its own changes nothing here.
	default:
		return errors.New("unknown envelope type")
	}
	return nil
}

func (p *Projection) applyPatch(patch StatePatch) {
	if patch.Phase != nil {
		p.Phase = *patch.Phase
	}
	if patch.Round != nil {
		p.Round = *patch.Round
	}
	if patch.TimeRemaining != nil {
		p.TimeRemaining = *patch.TimeRemaining
	}
	if patch.CurrentPhoto != nil {
		photo := *patch.CurrentPhoto
		p.CurrentPhoto = &photo
	}
	if patch.Scores != nil {
		scores := make(map[int]int, len(patch.Scores))
		for id, score := range patch.Scores {
			scores[id] = score
		}
		p.Scores = scores
	}
}

func (p *Projection) applyPresence(roster []PresenceEntry) {
	next := make([]PresenceEntry, len(roster))
	copy(next, roster)
	p.Roster = next
}

// Reset wipes the projection back to an empty lobby. This is the "back
// to menu" action: it does not touch the persisted game.
func (p *Projection) Reset() {
	p.Phase = phaseLobby
	p.Round = 0
	p.TimeRemaining = 0
	p.CurrentPhoto = nil
	p.Roster = nil
	p.Scores = make(map[int]int)
}
