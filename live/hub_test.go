package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentRoom(t *testing.T) {
	assert.Equal(t, "tournament_summer-finals", TournamentRoom("summer-finals"))
}

func TestBroadcastToRoomDeliversOnlyToRoomClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	subscriber := &Client{Hub: hub, Send: make(chan []byte, 1), Room: TournamentRoom("summer-finals")}
	bystander := &Client{Hub: hub, Send: make(chan []byte, 1), Room: TournamentRoom("winter-open")}
	hub.Register <- subscriber
	hub.Register <- bystander

	hub.BroadcastToRoom(TournamentRoom("summer-finals"), map[string]interface{}{
		"type":  "ROUND_ENQUEUED",
		"round": 7,
	})

	select {
	case msg := <-subscriber.Send:
		assert.Contains(t, string(msg), "ROUND_ENQUEUED")
	case <-time.After(time.Second):
		require.Fail(t, "subscriber did not receive the broadcast")
	}
	assert.Empty(t, bystander.Send)
}
