// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor serves a small HTTP+WebSocket status dashboard over a
// sensorcore.Sensors facade: a JSON snapshot endpoint and a WebSocket
// feed that pushes the four modality samples as they arrive. The
// aligner's drift state (ntp_scale, sync offset) is not included in
// either. Grounded on the teacher's
// internal/app/calibration_handler.go upgrader/session pattern
// (websocket.Upgrader{CheckOrigin}, one goroutine-owned *websocket.Conn
// per session, WriteJSON envelopes).
package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	sensorcore "github.com/relabs-tech/zed-sensor-core"
	"github.com/relabs-tech/zed-sensor-core/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local diagnostics tool, not internet-facing
	},
}

// Snapshot is the JSON shape served by both the HTTP and WS handlers.
type Snapshot struct {
	Type      string                    `json:"type"`
	Timestamp time.Time                 `json:"timestamp"`
	IMU       *sensorcore.IMUSample     `json:"imu,omitempty"`
	Mag       *sensorcore.MagSample     `json:"mag,omitempty"`
	Env       *sensorcore.EnvSample     `json:"env,omitempty"`
	CamTemp   *sensorcore.CamTempSample `json:"cam_temp,omitempty"`
}

// Server wraps a sensorcore.Sensors facade with HTTP handlers.
type Server struct {
	sensors       *sensorcore.Sensors
	log           logging.Logger
	pollTimeoutUS int64
}

// New returns a Server driving the given already-initialized facade.
func New(sensors *sensorcore.Sensors, log logging.Logger, pollTimeoutUS int64) *Server {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Server{sensors: sensors, log: log, pollTimeoutUS: pollTimeoutUS}
}

// Handler returns the mux serving /status (single JSON snapshot) and
// /ws (a streaming WebSocket feed).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) snapshot() Snapshot {
	snap := Snapshot{Type: "snapshot", Timestamp: time.Now()}
	if v, ok := s.sensors.LastIMU(0); ok {
		snap.IMU = &v
	}
	if v, ok := s.sensors.LastMag(0); ok {
		snap.Mag = &v
	}
	if v, ok := s.sensors.LastEnv(0); ok {
		snap.Env = &v
	}
	if v, ok := s.sensors.LastCamTemp(0); ok {
		snap.CamTemp = &v
	}
	return snap
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.log.Warn("monitor: encode status: %v", err)
	}
}

// handleWS upgrades the connection and pushes a snapshot each time a
// fresh IMU sample arrives or pollTimeoutUS elapses without one (so the
// session also sends periodic "still alive" snapshots). Mag, env and
// cam-temp are not waited on: each snapshot carries whichever of them
// is fresh at that moment.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("monitor: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &wsSession{conn: conn, server: s}
	session.run()
}

type wsSession struct {
	conn   *websocket.Conn
	server *Server
}

func (sess *wsSession) run() {
	timeout := sess.server.pollTimeoutUS
	if timeout <= 0 {
		timeout = 50_000
	}
	for {
		v, ok := sess.server.sensors.LastIMU(timeout)
		snap := Snapshot{Type: "update", Timestamp: time.Now()}
		if ok {
			snap.IMU = &v
		}
		if mv, ok := sess.server.sensors.LastMag(0); ok {
			snap.Mag = &mv
		}
		if ev, ok := sess.server.sensors.LastEnv(0); ok {
			snap.Env = &ev
		}
		if cv, ok := sess.server.sensors.LastCamTemp(0); ok {
			snap.CamTemp = &cv
		}
		if err := sess.conn.WriteJSON(snap); err != nil {
			sess.server.log.Warn("monitor: websocket write error: %v", err)
			return
		}
	}
}
