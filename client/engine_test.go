package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ogeth777/baseworld/client"
	"github.com/ogeth777/baseworld/client/mocks"
	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/leaderboard"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEngine struct {
	*client.Engine
	notifier *mocks.MockNotifier
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	return &testEngine{
		Engine:   client.NewEngine(logging.NewTestLogger(), client.NewDefaultConfig(), notifier),
		notifier: notifier,
	}
}

func intent(cell int, ref string) client.Intent {
	return client.Intent{PaymentRef: ref, Cell: cell, Actor: "0xabc", Annotation: "gm"}
}

func rejected() error {
	return &client.ServerError{StatusCode: 402, Code: "payment_rejected", Message: "payment rejected"}
}

func TestOptimisticPaintSurvivesStaleResync(t *testing.T) {
	e := getTestEngine(t)
	e.Resync(make([]int8, 100))

	e.notifier.EXPECT().NotifyPaint(gomock.Any(), gomock.Any()).Times(1).Return(errors.New("connection reset"))
	st := e.Submit(context.Background(), intent(42, "0x01"))
	assert.Equal(t, client.StatusSyncing, st)
	assert.True(t, e.Painted(42))

	// a snapshot taken before the paint landed
	e.Resync(make([]int8, 100))
	assert.True(t, e.Painted(42))
	assert.Equal(t, "0xabc", e.Owner(42))
	assert.Equal(t, "gm", e.Annotation(42))
	assert.Equal(t, []int{42}, e.Optimistic())
	assert.Equal(t, 1, e.PaintedCount())
}

func TestServerPaintClearsOptimistic(t *testing.T) {
	e := getTestEngine(t)
	e.Resync(make([]int8, 100))

	e.notifier.EXPECT().NotifyPaint(gomock.Any(), gomock.Any()).Times(1).Return(nil)
	assert.Equal(t, client.StatusConfirmed, e.Submit(context.Background(), intent(42, "0x01")))
	assert.Equal(t, []int{42}, e.Optimistic())

	// another user won the cell
	e.Ingest(events.TilePainted{Index: 42, Owner: "0xdef"})
	assert.Equal(t, "0xabc", e.Owner(42), "not applied before flush")

	assert.Equal(t, 1, e.Flush())
	assert.Empty(t, e.Optimistic())
	assert.True(t, e.Painted(42))
	assert.Equal(t, "0xdef", e.Owner(42))
	assert.Equal(t, "", e.Annotation(42))
	assert.Equal(t, 0, e.Flush())
}

func TestServerPaintOnOtherCellKeepsOptimistic(t *testing.T) {
	e := getTestEngine(t)
	e.notifier.EXPECT().NotifyPaint(gomock.Any(), gomock.Any()).Times(1).Return(nil)
	e.Submit(context.Background(), intent(1, "0x01"))

	e.Ingest(events.TilePainted{Index: 2, Owner: "0xdef", Annotation: "hi"})
	e.Flush()
	assert.Equal(t, []int{1}, e.Optimistic())
	assert.Equal(t, "hi", e.Annotation(2))
	assert.Equal(t, 2, e.PaintedCount())
	assert.Equal(t, 3, e.GridSize())
}

func TestRejectedPaintIsRolledBack(t *testing.T) {
	e := getTestEngine(t)
	e.Resync(make([]int8, 10))

	e.notifier.EXPECT().NotifyPaint(gomock.Any(), gomock.Any()).Times(1).Return(rejected())
	st := e.Submit(context.Background(), intent(3, "0x01"))
	assert.Equal(t, client.StatusRejected, st)
	assert.False(t, e.Painted(3))
	assert.Empty(t, e.Optimistic())
	assert.Equal(t, 0, e.PendingRetries())
}

func TestRetryQueue(t *testing.T) {
	e := getTestEngine(t)
	unavailable := &client.ServerError{StatusCode: 503, Code: "payment_indeterminate", Message: "not mined"}

	gomock.InOrder(
		e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(5, "0x01")).Return(unavailable),
		e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(6, "0x02")).Return(unavailable),
	)
	assert.Equal(t, client.StatusSyncing, e.Submit(context.Background(), intent(5, "0x01")))
	assert.Equal(t, client.StatusSyncing, e.Submit(context.Background(), intent(6, "0x02")))
	assert.Equal(t, 2, e.PendingRetries())

	t.Run("still unavailable stays queued once", func(t *testing.T) {
		e.notifier.EXPECT().NotifyPaint(gomock.Any(), gomock.Any()).Times(2).Return(unavailable)
		assert.Equal(t, 2, e.DrainRetries(context.Background()))
	})

	t.Run("confirmed and rejected leave the queue", func(t *testing.T) {
		e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(5, "0x01")).Return(nil)
		e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(6, "0x02")).Return(rejected())
		assert.Equal(t, 0, e.DrainRetries(context.Background()))
		assert.Equal(t, []int{5}, e.Optimistic())
	})
}

func TestRejectionKeepsNewerPaintOfSameCell(t *testing.T) {
	e := getTestEngine(t)
	e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(5, "0x01")).Return(errors.New("timeout"))
	e.Submit(context.Background(), intent(5, "0x01"))

	newer := intent(5, "0x02")
	newer.Annotation = "again"
	e.notifier.EXPECT().NotifyPaint(gomock.Any(), newer).Return(nil)
	e.Submit(context.Background(), newer)

	e.notifier.EXPECT().NotifyPaint(gomock.Any(), intent(5, "0x01")).Return(rejected())
	e.DrainRetries(context.Background())
	assert.True(t, e.Painted(5))
	assert.Equal(t, "again", e.Annotation(5))
}

func TestHandleEvents(t *testing.T) {
	e := getTestEngine(t)

	require.NoError(t, e.Handle(events.NewInitGrid([]int8{0, 1, 0, 1})))
	assert.Equal(t, 2, e.PaintedCount())

	require.NoError(t, e.Handle(events.NewInitAnnotations(map[int]string{1: "gm"})))
	assert.Equal(t, "gm", e.Annotation(1))

	require.NoError(t, e.Handle(events.NewTilePainted(2, "0xabc", "")))
	e.Flush()
	assert.True(t, e.Painted(2))

	lb := []leaderboard.Entry{{Address: "0xabc", Score: 3}}
	require.NoError(t, e.Handle(events.NewLeaderboardUpdate(lb)))
	assert.Equal(t, lb, e.Leaderboard())

	a := events.Airdrop{ID: "1", SpawnedAt: 1, ExpiresAt: 2}
	require.NoError(t, e.Handle(events.NewSpawnAirdrop(a)))
	got, ok := e.Airdrop()
	require.True(t, ok)
	assert.Equal(t, a, got)

	require.NoError(t, e.Handle(events.NewAirdropExpired("other")))
	_, ok = e.Airdrop()
	assert.True(t, ok)
	require.NoError(t, e.Handle(events.NewAirdropClaimed("1", "0xabc")))
	_, ok = e.Airdrop()
	assert.False(t, ok)

	assert.False(t, e.Endgame())
	require.NoError(t, e.Handle(events.NewEndgameTriggered(4, 1)))
	assert.True(t, e.Endgame())

	assert.NoError(t, e.Handle(events.Event{Type: "something-new"}))
	assert.Error(t, e.Handle(events.Event{Type: events.TilePaintedEvent, Data: []byte(`"nope"`)}))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "confirmed", client.StatusConfirmed.String())
	assert.Equal(t, "provisionally accepted, syncing", client.StatusSyncing.String())
	assert.Equal(t, "rejected", client.StatusRejected.String())
}
