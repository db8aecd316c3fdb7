package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pefman/w40k-volley/internal/models"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type progressMsg struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// handleWS streams simulation progress. The client sends
// {"type":"run","data":<simRequest>} and receives "progress" messages
// followed by one "result" or "error". {"type":"cancel"} stops the
// current run.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws: upgrade failed", zap.Error(err))
		return
	}
	s.log.Info("ws: connect", zap.String("from", r.RemoteAddr))

	var writeMu sync.Mutex
	send := func(typ string, data any) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(models.WsMsg{Type: typ, Data: data}); err != nil {
			s.log.Debug("ws: write failed", zap.Error(err))
		}
	}

	ctx, cancelAll := context.WithCancel(context.Background())
	cancelRun := func() {}
	var wg sync.WaitGroup
	defer func() {
		cancelRun()
		cancelAll()
		wg.Wait()
		_ = conn.Close()
		s.log.Info("ws: closed", zap.String("from", r.RemoteAddr))
	}()

	for {
		var in clientIn
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws: read error", zap.Error(err))
			}
			return
		}
		switch in.Type {
		case "run":
			var req simRequest
			if err := json.Unmarshal(in.Data, &req); err != nil {
				send("error", "invalid run request")
				continue
			}
			cancelRun()
			runCtx, cancel := context.WithCancel(ctx)
			cancelRun = cancel
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.simulate(runCtx, req, func(done, total int) {
					send("progress", progressMsg{Done: done, Total: total})
				})
				if err != nil {
					send("error", err.Error())
					return
				}
				send("result", res)
			}()
		case "cancel":
			cancelRun()
		default:
			send("error", "unknown message type "+in.Type)
		}
	}
}
