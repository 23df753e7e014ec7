package trade_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openpredict/market-engine/internal/trade"
)

// Broadcasting while clients drop must not corrupt the client set; the
// remaining clients keep receiving. Run with -race to verify the hub's
// locking.
func TestWSHub_BroadcastSurvivesDisconnects(t *testing.T) {
	hub := trade.NewWSHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conns := make([]*websocket.Conn, 0, 4)
	for i := 0; i < 4; i++ {
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conns = append(conns, c)
	}
	// Let the hub register all connections before broadcasting.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast(trade.WSMessage{Type: "bet_executed", MarketID: "m1", Side: "YES"})
		}
	}()

	// Two clients die mid-broadcast.
	conns[0].Close()
	conns[1].Close()
	<-done

	conns[2].SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conns[2].ReadMessage(); err != nil {
		t.Fatalf("surviving client should still receive broadcasts: %v", err)
	}

	conns[2].Close()
	conns[3].Close()
}
