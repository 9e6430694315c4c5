// Package server exposes the planet over a websocket: clients push
// settings changes and crater stamps and receive mesh frames back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/logging"
	"mini-planet/internal/meshcodec"
	"mini-planet/internal/planet"
	"mini-planet/internal/profiling"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

type client struct {
	id   string
	conn *websocket.Conn
	log  *logging.Logger
	// mu serialises writes; gorilla connections allow one concurrent writer.
	mu sync.Mutex
}

func (c *client) write(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}

func (c *client) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

// Server owns the live settings, the generator and the connected clients.
type Server struct {
	store    *config.Store
	gen      *planet.Generator
	metrics  *Metrics
	prof     *profiling.Profile
	log      *logging.Logger
	upgrader websocket.Upgrader

	// applyMu keeps settings updates and the rebuilds they trigger in the
	// same order.
	applyMu sync.Mutex

	mu      sync.RWMutex
	clients map[string]*client
}

func New(store *config.Store, gen *planet.Generator, metrics *Metrics, prof *profiling.Profile, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	if prof == nil {
		prof = new(profiling.Profile)
	}
	return &Server{
		store:   store,
		gen:     gen,
		metrics: metrics,
		prof:    prof,
		log:     log,
		upgrader: websocket.Upgrader{
			// The viewer is served from anywhere during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler routes /ws, /mesh, /settings and /healthz, plus /metrics when
// metrics are enabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/mesh", s.handleMesh)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) frame(snap *planet.Snapshot) ([]byte, error) {
	defer s.prof.Track("meshcodec.Encode")()
	data, err := meshcodec.Encode(snap.Mesh, snap.Colors, snap.Settings.Server.Compress)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.frameBytes.Observe(float64(len(data)))
	}
	return data, nil
}

func (s *Server) handleMesh(w http.ResponseWriter, _ *http.Request) {
	snap := s.gen.Current()
	if snap == nil {
		http.Error(w, "planet not built", http.StatusServiceUnavailable)
		return
	}
	data, err := s.frame(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.Get())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	id := uuid.NewString()
	c := &client{id: id, conn: conn, log: s.log.With("session " + id)}
	s.addClient(c)
	defer func() {
		s.removeClient(c)
		conn.Close()
	}()
	c.log.Infof("connected from %s", r.RemoteAddr)

	if snap := s.gen.Current(); snap != nil {
		if err := s.sendSnapshot(c, snap); err != nil {
			c.log.Warnf("initial frame: %v", err)
			return
		}
	}

	conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("read: %v", err)
			}
			return
		}
		if err := s.handleMessage(r.Context(), c, data); err != nil {
			c.log.Warnf("%v", err)
			if werr := c.writeJSON(errorMessage{Type: msgError, Error: err.Error()}); werr != nil {
				return
			}
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.clients.Set(float64(n))
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.clients.Set(float64(n))
	}
	c.log.Infof("disconnected")
}

// sendSnapshot sends the mesh frame followed by the settings it was built from.
func (s *Server) sendSnapshot(c *client, snap *planet.Snapshot) error {
	data, err := s.frame(snap)
	if err != nil {
		return err
	}
	if err := c.write(websocket.BinaryMessage, data); err != nil {
		return err
	}
	return c.writeJSON(settingsMessage{Type: msgSettings, Version: snap.Version, Settings: snap.Settings})
}

func (s *Server) handleMessage(ctx context.Context, c *client, data []byte) error {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("bad message: %w", err)
	}
	switch msg.Type {
	case msgUpdate:
		return s.applyUpdate(ctx, msg.Settings)
	case msgStamp:
		if msg.Crater == nil {
			return errors.New("stamp: missing crater")
		}
		return s.applyStamp(ctx, msg)
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (s *Server) applyUpdate(ctx context.Context, patch json.RawMessage) error {
	if len(patch) == 0 {
		return errors.New("update: missing settings")
	}
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	prev := s.store.Get()
	next, _, err := s.store.Update(func(st *config.Settings) error {
		return json.Unmarshal(patch, st)
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if level, err := logging.ParseLevel(next.Log.Level); err == nil {
		s.log.SetLevel(level)
	}

	// Classify against what is published, not what the store held, so
	// the work done matches what clients actually have.
	kind := config.ChangeTopology
	if cur := s.gen.Current(); cur != nil {
		kind = config.Classify(cur.Settings, next)
	}
	if kind == config.ChangeNone {
		return nil
	}

	snap, err := s.gen.Rebuild(ctx, next, kind)
	if err != nil {
		s.rollback(prev)
		return fmt.Errorf("rebuild: %w", err)
	}
	if kind == config.ChangeShading {
		s.broadcastJSON(settingsMessage{Type: msgShading, Version: snap.Version, Settings: snap.Settings})
		return nil
	}
	s.broadcastSnapshot(snap)
	return nil
}

func (s *Server) applyStamp(ctx context.Context, msg clientMessage) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	spec := *msg.Crater
	prev := s.store.Get()
	if _, _, err := s.store.Update(func(st *config.Settings) error {
		st.Craters.Stamps = append(st.Craters.Stamps, spec)
		return nil
	}); err != nil {
		return fmt.Errorf("stamp: %w", err)
	}
	snap, err := s.gen.Stamp(ctx, spec)
	if err != nil {
		s.rollback(prev)
		return fmt.Errorf("stamp: %w", err)
	}
	s.broadcastSnapshot(snap)
	return nil
}

// rollback puts the store back to prev after the generator refused a
// change, so the settings served stay those of the published planet.
func (s *Server) rollback(prev config.Settings) {
	if _, _, err := s.store.Update(func(st *config.Settings) error {
		*st = prev
		return nil
	}); err != nil {
		s.log.Errorf("restore settings: %v", err)
	}
}

func (s *Server) snapshotClients() []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *Server) broadcastSnapshot(snap *planet.Snapshot) {
	data, err := s.frame(snap)
	if err != nil {
		s.log.Errorf("encode frame: %v", err)
		return
	}
	settings := settingsMessage{Type: msgSettings, Version: snap.Version, Settings: snap.Settings}
	for _, c := range s.snapshotClients() {
		if err := c.write(websocket.BinaryMessage, data); err != nil {
			c.log.Warnf("send frame: %v", err)
			continue
		}
		if err := c.writeJSON(settings); err != nil {
			c.log.Warnf("send settings: %v", err)
		}
	}
}

func (s *Server) broadcastJSON(v any) {
	for _, c := range s.snapshotClients() {
		if err := c.writeJSON(v); err != nil {
			c.log.Warnf("send: %v", err)
		}
	}
}
