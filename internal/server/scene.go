package server

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/particles"
	"github.com/ayusman/mudra/internal/scene"
)

// Binary message tags. Each binary message is one tag byte followed by
// little-endian float32 values.
const (
	TagGalaxyPositions byte = 1
	TagGalaxyColors    byte = 2
	TagGalaxySizes     byte = 3
	TagNebulaPositions byte = 4
	TagNebulaColors    byte = 5
	TagNebulaSizes     byte = 6
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// initMessage is the first text message a client receives.
type initMessage struct {
	Type        string `json:"type"`
	Client      string `json:"client"`
	GalaxyCount int    `json:"galaxyCount"`
	NebulaCount int    `json:"nebulaCount"`
}

// frameMessage is the per-frame text message. The galaxy positions follow
// as a binary message.
type frameMessage struct {
	Type string `json:"type"`
	scene.Snapshot
}

// clientMessage is what the renderer may send back.
type clientMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type outbound struct {
	kind int
	data []byte
}

type sceneClient struct {
	id   string
	conn *websocket.Conn
	send chan []outbound
}

// SceneHub streams snapshots to every connected renderer. It implements the
// frame loop's sink.
type SceneHub struct {
	galaxy     *particles.Field
	nebula     *particles.Field
	onViewport func(aspect float64)
	log        zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*sceneClient
}

// HubOptions wires a SceneHub.
type HubOptions struct {
	Galaxy     *particles.Field
	Nebula     *particles.Field
	OnViewport func(aspect float64)
	Logger     zerolog.Logger
}

// NewSceneHub creates a hub with no clients.
func NewSceneHub(opts HubOptions) *SceneHub {
	return &SceneHub{
		galaxy:     opts.Galaxy,
		nebula:     opts.Nebula,
		onViewport: opts.OnViewport,
		log:        opts.Logger,
		clients:    make(map[string]*sceneClient),
	}
}

// Clients returns the number of connected renderers.
func (h *SceneHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EncodeFloats packs values behind a tag byte as little-endian float32.
func EncodeFloats(tag byte, values []float32) []byte {
	buf := make([]byte, 1+4*len(values))
	buf[0] = tag
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[1+4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeFloats reverses EncodeFloats.
func DecodeFloats(msg []byte) (byte, []float32) {
	if len(msg) == 0 {
		return 0, nil
	}
	values := make([]float32, (len(msg)-1)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(msg[1+4*i:]))
	}
	return msg[0], values
}

// Publish encodes snap once and queues it for every client. A client that
// has fallen behind loses its oldest pending frame.
func (h *SceneHub) Publish(snap scene.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	header, err := json.Marshal(frameMessage{Type: "frame", Snapshot: snap})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode snapshot")
		return
	}
	frame := []outbound{{websocket.TextMessage, header}}
	if len(snap.Particles) > 0 {
		frame = append(frame, outbound{websocket.BinaryMessage, EncodeFloats(TagGalaxyPositions, snap.Particles)})
	}

	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- frame:
			default:
			}
		}
	}
}

// static is the one-off data a client needs before the first frame.
func (h *SceneHub) static(id string) []outbound {
	msg := initMessage{Type: "init", Client: id}
	var bins []outbound
	if h.galaxy != nil {
		msg.GalaxyCount = h.galaxy.Len()
		bins = append(bins,
			outbound{websocket.BinaryMessage, EncodeFloats(TagGalaxyColors, h.galaxy.Colors())},
			outbound{websocket.BinaryMessage, EncodeFloats(TagGalaxySizes, h.galaxy.Sizes())},
		)
	}
	if h.nebula != nil {
		msg.NebulaCount = h.nebula.Len()
		bins = append(bins,
			outbound{websocket.BinaryMessage, EncodeFloats(TagNebulaPositions, h.nebula.Positions())},
			outbound{websocket.BinaryMessage, EncodeFloats(TagNebulaColors, h.nebula.Colors())},
			outbound{websocket.BinaryMessage, EncodeFloats(TagNebulaSizes, h.nebula.Sizes())},
		)
	}
	head, _ := json.Marshal(msg)
	return append([]outbound{{websocket.TextMessage, head}}, bins...)
}

// ServeHTTP upgrades the request and streams snapshots until the client leaves.
func (h *SceneHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	c := &sceneClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []outbound, sendBuffer),
	}
	log := h.log.With().Str("client", c.id).Logger()

	// Static data is written before registration so no frame can precede
	// or displace it.
	if err := writeBatch(conn, h.static(c.id)); err != nil {
		log.Warn().Err(err).Msg("Failed to send scene init")
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Info().Msg("Renderer connected")

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c, log)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Info().Msg("Renderer disconnected")
}

func (h *SceneHub) readPump(c *sceneClient, log zerolog.Logger) {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("Ignoring malformed client message")
			continue
		}
		if msg.Type == "viewport" && msg.Width > 0 && msg.Height > 0 && h.onViewport != nil {
			h.onViewport(msg.Width / msg.Height)
		}
	}
}

func (h *SceneHub) writePump(c *sceneClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case batch := <-c.send:
			if err := writeBatch(c.conn, batch); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func writeBatch(conn *websocket.Conn, batch []outbound) error {
	for _, m := range batch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(m.kind, m.data); err != nil {
			return err
		}
	}
	return nil
}
