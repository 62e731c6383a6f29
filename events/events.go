package events

import (
	"encoding/json"
	"fmt"

	"github.com/ogeth777/baseworld/leaderboard"
)

// Type is the name of an event on the wire.
type Type string

const (
	InitGridEvent          Type = "init-grid"
	InitAnnotationsEvent   Type = "init-annotations"
	LeaderboardUpdateEvent Type = "leaderboard-update"
	TilePaintedEvent       Type = "tile-painted"
	SpawnAirdropEvent      Type = "spawn-airdrop"
	AirdropClaimedEvent    Type = "airdrop-claimed"
	AirdropExpiredEvent    Type = "airdrop-expired"
	EndgameTriggeredEvent  Type = "endgame-triggered"
)

func (t Type) String() string {
	return string(t)
}

// Event is the envelope pushed to viewers. Data is encoded once when the
// event is built so a broadcast does not re-encode it per viewer.
type Event struct {
	Type Type            `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the payload of e into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("could not decode %s payload: %w", e.Type, err)
	}
	return nil
}

type TilePainted struct {
	Index      int    `json:"index"`
	Owner      string `json:"owner"`
	Annotation string `json:"annotation,omitempty"`
}

type Position struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
}

type Airdrop struct {
	ID        string   `json:"id"`
	SpawnedAt int64    `json:"spawnedAt"`
	ExpiresAt int64    `json:"expiresAt"`
	Position  Position `json:"position"`
}

type AirdropClaimed struct {
	ID        string `json:"id"`
	ClaimedBy string `json:"claimedBy"`
}

type AirdropExpired struct {
	ID string `json:"id"`
}

type Endgame struct {
	PaintedCells int     `json:"paintedCells"`
	Fraction     float64 `json:"fraction"`
}

func NewInitGrid(painted []int8) Event {
	if painted == nil {
		painted = []int8{}
	}
	return newEvent(InitGridEvent, painted)
}

func NewInitAnnotations(annotations map[int]string) Event {
	if annotations == nil {
		annotations = map[int]string{}
	}
	return newEvent(InitAnnotationsEvent, annotations)
}

func NewLeaderboardUpdate(entries []leaderboard.Entry) Event {
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	return newEvent(LeaderboardUpdateEvent, entries)
}

func NewTilePainted(index int, owner, annotation string) Event {
	return newEvent(TilePaintedEvent, TilePainted{Index: index, Owner: owner, Annotation: annotation})
}

func NewSpawnAirdrop(a Airdrop) Event {
	return newEvent(SpawnAirdropEvent, a)
}

func NewAirdropClaimed(id, claimedBy string) Event {
	return newEvent(AirdropClaimedEvent, AirdropClaimed{ID: id, ClaimedBy: claimedBy})
}

func NewAirdropExpired(id string) Event {
	return newEvent(AirdropExpiredEvent, AirdropExpired{ID: id})
}

func NewEndgameTriggered(painted int, fraction float64) Event {
	return newEvent(EndgameTriggeredEvent, Endgame{PaintedCells: painted, Fraction: fraction})
}

// newEvent panics if the payload cannot be encoded, which only happens for
// payload types this package does not define.
func newEvent(t Type, payload interface{}) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("could not encode %s payload: %v", t, err))
	}
	return Event{Type: t, Data: data}
}
