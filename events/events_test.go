package events_test

import (
	"encoding/json"
	"testing"

	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/leaderboard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	raw, err := json.Marshal(events.NewTilePainted(7, "0xabc", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"tile-painted","data":{"index":7,"owner":"0xabc"}}`, string(raw))

	var got events.Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, events.TilePaintedEvent, got.Type)

	var tp events.TilePainted
	require.NoError(t, got.Decode(&tp))
	assert.Equal(t, events.TilePainted{Index: 7, Owner: "0xabc"}, tp)
}

func TestEmptyPayloadsEncodeAsEmptyCollections(t *testing.T) {
	assert.JSONEq(t, `[]`, string(events.NewInitGrid(nil).Data))
	assert.JSONEq(t, `{}`, string(events.NewInitAnnotations(nil).Data))
	assert.JSONEq(t, `[]`, string(events.NewLeaderboardUpdate(nil).Data))
}

func TestAnnotationsKeyedByIndex(t *testing.T) {
	ev := events.NewInitAnnotations(map[int]string{3: "gm", 40: "wagmi"})
	assert.JSONEq(t, `{"3":"gm","40":"wagmi"}`, string(ev.Data))

	got := map[int]string{}
	require.NoError(t, ev.Decode(&got))
	assert.Equal(t, map[int]string{3: "gm", 40: "wagmi"}, got)
}

func TestLeaderboardPayload(t *testing.T) {
	ev := events.NewLeaderboardUpdate([]leaderboard.Entry{{Address: "X", Score: 1}})
	assert.JSONEq(t, `[{"address":"X","score":1}]`, string(ev.Data))
}

func TestDecodeWithoutPayload(t *testing.T) {
	var v events.TilePainted
	assert.Error(t, events.Event{Type: events.TilePaintedEvent}.Decode(&v))
}
