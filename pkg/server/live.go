package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nicktill/salesagg/pkg/checkpoint"
	"github.com/nicktill/salesagg/pkg/config"
	"github.com/nicktill/salesagg/pkg/scan"
	"github.com/nicktill/salesagg/pkg/summary"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// No Origin header means a non-browser client; same-origin for
		// the rest.
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// LiveUpdate is the payload pushed to websocket clients when the
// summary directory changes.
type LiveUpdate struct {
	Stats     summary.Stats       `json:"stats"`
	Hours     []summary.HourSales `json:"hours"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SummaryHub manages the websocket clients subscribed to live summary
// updates and broadcasts to all of them.
type SummaryHub struct {
	outputRoot string
	log        *zap.Logger

	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewSummaryHub creates a hub over outputRoot.
func NewSummaryHub(outputRoot string, log *zap.Logger) *SummaryHub {
	return &SummaryHub{
		outputRoot: outputRoot,
		log:        log,
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn, config.WSChannelBuffer),
		unregister: make(chan *websocket.Conn, config.WSChannelBuffer),
		broadcast:  make(chan []byte, config.WSBroadcastBuffer),
	}
}

// Run is the hub's main loop. Blocks until ctx is cancelled, then
// closes every client.
func (h *SummaryHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			h.log.Debug("live client connected", zap.Int("clients", h.clientCount()))
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range failed {
				h.unregister <- conn
			}
		}
	}
}

// Watch polls the output directory and broadcasts a LiveUpdate whenever
// the set of summary files changes. The change check reuses the
// pipeline's input fingerprinting over the output files.
func (h *SummaryHub) Watch(ctx context.Context) {
	ticker := time.NewTicker(config.LivePollInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			files, err := scan.ListLogFiles(h.outputRoot)
			if err != nil {
				continue // output dir may not exist until the first run
			}
			fp, err := checkpoint.Fingerprint(files)
			if err != nil || fp == last {
				continue
			}
			last = fp
			h.broadcastUpdate()
		}
	}
}

func (h *SummaryHub) broadcastUpdate() {
	rows, err := summary.ReadDir(h.outputRoot, summary.Filter{})
	if err != nil {
		h.log.Warn("live update read failed", zap.Error(err))
		return
	}
	payload, err := json.Marshal(LiveUpdate{
		Stats:     summary.Compute(rows),
		Hours:     summary.ByHour(rows),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		// A full buffer means nobody is draining; drop the update
		// rather than stall the watcher.
	}
}

func (h *SummaryHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleLive upgrades the connection and registers it with the hub.
// Clients are write-only from the server's perspective; reads are
// drained just to notice disconnects.
func (h *SummaryHub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
