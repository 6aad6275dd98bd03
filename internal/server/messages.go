package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Room channel messages travel as a closed, versioned envelope. Only
// the listed types exist; anything else is rejected at the channel
// boundary before it can touch a projection.
const (
	envelopeVersion = 1

	msgJoinAnnounce = "join_announce"
	msgStatePatch   = "state_patch"
	msgPresenceSync = "presence_sync"
)

type Envelope struct {
	Version  int             `json:"v"`
	Type     string          `json:"type"`
	Origin   string          `json:"origin,omitempty"`
	Join     *JoinAnnounce   `json:"join,omitempty"`
	Patch    *StatePatch     `json:"patch,omitempty"`
	Presence []PresenceEntry `json:"presence,omitempty"`
}

type JoinAnnounce struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

// StatePatch is a partial update to room state. Fields are pointers so
// that an absent field leaves the corresponding projection field
// untouched when the patch is applied.
type StatePatch struct {
	Phase         *string     `json:"phase,omitempty"`
	Round         *int        `json:"round,omitempty"`
	TimeRemaining *int        `json:"time_remaining,omitempty"`
	CurrentPhoto  *PhotoView  `json:"current_photo,omitempty"`
	Scores        map[int]int `json:"scores,omitempty"`
}

type PhotoView struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	PlayerID int    `json:"player_id"`
}

type PresenceEntry struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

func patchEnvelope(patch StatePatch) Envelope {
	return Envelope{Version: envelopeVersion, Type: msgStatePatch, Patch: &patch}
}

func presenceEnvelope(roster []PresenceEntry) Envelope {
	if roster == nil {
		roster = []PresenceEntry{}
	}
	return Envelope{Version: envelopeVersion, Type: msgPresenceSync, Presence: roster}
}

func joinEnvelope(playerID int, name string) Envelope {
	return Envelope{
		Version: envelopeVersion,
		Type:    msgJoinAnnounce,
		Join:    &JoinAnnounce{PlayerID: playerID, Name: name},
	}
}

// DecodeEnvelope validates a raw channel payload before it is allowed
// anywhere near a projection.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return Envelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	switch env.Type {
	case msgJoinAnnounce:
		if env.Join == nil {
			return Envelope{}, errors.New("join_announce without join payload")
		}
	case msgStatePatch:
		if env.Patch == nil {
			return Envelope{}, errors.New("state_patch without patch payload")
		}
	case msgPresenceSync:
		if env.Presence == nil {
			return Envelope{}, errors.New("presence_sync without roster")
		}
	default:
		return Envelope{}, fmt.Errorf("unknown envelope type %q", env.Type)
	}
	return env, nil
}
