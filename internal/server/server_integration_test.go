package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/particles"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/settings"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_SettingsWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	live := settings.NewLive(settings.Defaults())
	settings.Persist(live, s.Settings(), nil)
	ts := httptest.NewServer(New(Config{Store: s, Settings: live, Logger: zerolog.Nop()}))
	defer ts.Close()
	client := ts.Client()

	// 1. Switch to pan mode
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewBufferString(`{"mode": "pan"}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 2. Read it back
	resp, err = client.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET /api/settings error = %v", err)
	}
	var got settings.Settings
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got.Mode != control.ModePan {
		t.Errorf("mode = %s, want pan", got.Mode)
	}

	// 3. The frame loop's view changed and the value survives a restart
	if live.Load().Mode != control.ModePan {
		t.Error("live settings not updated")
	}
	saved, err := settings.Load(s.Settings())
	if err != nil || saved.Mode != control.ModePan {
		t.Errorf("persisted = %+v, %v", saved, err)
	}

	// 4. Sessions list is empty but well formed
	resp, _ = client.Get(ts.URL + "/api/sessions")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/sessions status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func smallFields(t *testing.T) (*particles.Field, *particles.Field) {
	t.Helper()
	galaxy, err := particles.NewGalaxy(particles.GalaxyConfig{Count: 10, Radius: 50, StarSize: 1, Arms: 2, Seed: 3, Physics: particles.Classic()})
	if err != nil {
		t.Fatalf("NewGalaxy() error = %v", err)
	}
	nebula, err := particles.NewNebula(particles.NebulaConfig{Count: 5, Radius: 40, Arms: 2, Seed: 4})
	if err != nil {
		t.Fatalf("NewNebula() error = %v", err)
	}
	return galaxy, nebula
}

func readText(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("message kind = %d, want text", kind)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad JSON %q: %v", data, err)
	}
	return msg
}

func readBinary(t *testing.T, conn *websocket.Conn) (byte, []float32) {
	t.Helper()
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message kind = %d, want binary", kind)
	}
	return DecodeFloats(data)
}

func TestSceneHub_Stream(t *testing.T) {
	galaxy, nebula := smallFields(t)
	aspects := make(chan float64, 1)
	hub := NewSceneHub(HubOptions{
		Galaxy:     galaxy,
		Nebula:     nebula,
		OnViewport: func(a float64) { aspects <- a },
		Logger:     zerolog.Nop(),
	})
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/scene"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	hello := readText(t, conn)
	if hello["type"] != "init" || hello["galaxyCount"] != float64(10) || hello["nebulaCount"] != float64(5) {
		t.Fatalf("init = %v", hello)
	}
	wantTags := []struct {
		tag byte
		n   int
	}{
		{TagGalaxyColors, 30}, {TagGalaxySizes, 10},
		{TagNebulaPositions, 15}, {TagNebulaColors, 15}, {TagNebulaSizes, 5},
	}
	for _, w := range wantTags {
		tag, values := readBinary(t, conn)
		if tag != w.tag || len(values) != w.n {
			t.Errorf("static message tag %d len %d, want tag %d len %d", tag, len(values), w.tag, w.n)
		}
	}

	// Publish may race the registration; retry until the client is known.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.Publish(scene.Snapshot{
		Session:   "s1",
		Frame:     7,
		Hint:      scene.Hint(0),
		Particles: galaxy.Positions(),
	})

	frame := readText(t, conn)
	if frame["type"] != "frame" || frame["session"] != "s1" || frame["frame"] != float64(7) {
		t.Errorf("frame header = %v", frame)
	}
	if _, leaked := frame["Particles"]; leaked {
		t.Error("particles leaked into the JSON header")
	}
	tag, positions := readBinary(t, conn)
	if tag != TagGalaxyPositions || len(positions) != 30 {
		t.Fatalf("positions tag %d len %d", tag, len(positions))
	}
	for i, v := range galaxy.Positions() {
		if positions[i] != v {
			t.Fatalf("position %d = %v, want %v", i, positions[i], v)
		}
	}

	if err := conn.WriteJSON(map[string]any{"type": "viewport", "width": 800, "height": 400}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	select {
	case a := <-aspects:
		if a != 2 {
			t.Errorf("aspect = %v, want 2", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("viewport message not delivered")
	}
}

func TestSceneHub_InitSurvivesFrameBurst(t *testing.T) {
	galaxy, nebula := smallFields(t)
	hub := NewSceneHub(HubOptions{Galaxy: galaxy, Nebula: nebula, Logger: zerolog.Nop()})
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/scene", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// More frames than the client buffer holds, before anything is read.
	for i := 0; i < 3*sendBuffer; i++ {
		hub.Publish(scene.Snapshot{Frame: uint64(i), Particles: galaxy.Positions()})
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if hello := readText(t, conn); hello["type"] != "init" {
		t.Fatalf("first message = %v, want init", hello)
	}
	for _, want := range []byte{TagGalaxyColors, TagGalaxySizes, TagNebulaPositions, TagNebulaColors, TagNebulaSizes} {
		if tag, _ := readBinary(t, conn); tag != want {
			t.Fatalf("static tag = %d, want %d", tag, want)
		}
	}
	if frame := readText(t, conn); frame["type"] != "frame" {
		t.Errorf("message after init = %v, want a frame", frame)
	}
}

func TestSceneHub_PublishWithoutClients(t *testing.T) {
	hub := NewSceneHub(HubOptions{Logger: zerolog.Nop()})
	hub.Publish(scene.Snapshot{Particles: []float32{1, 2, 3}})
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d", hub.Clients())
	}
}

func TestEncodeFloats(t *testing.T) {
	in := []float32{0, 1.5, -2.25}
	msg := EncodeFloats(TagNebulaSizes, in)
	if len(msg) != 13 || msg[0] != TagNebulaSizes {
		t.Fatalf("encoded %d bytes, tag %d", len(msg), msg[0])
	}
	tag, out := DecodeFloats(msg)
	if tag != TagNebulaSizes || len(out) != 3 || out[1] != 1.5 || out[2] != -2.25 {
		t.Errorf("decoded %d %v", tag, out)
	}
}

func TestStream_ServesPreviewFrames(t *testing.T) {
	preview := capture.NewPreview()
	ts := httptest.NewServer(New(Config{Preview: preview}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s", ct)
	}
	if preview.Viewers() != 1 {
		t.Errorf("Viewers() = %d, want 1 while streaming", preview.Viewers())
	}

	preview.Put([]byte("jpegdata"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || line != "--frame\r\n" {
		t.Fatalf("first line %q, %v", line, err)
	}
}
