// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

// Packages the static files in a .go file.
//go:generate go run package/main.go

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/maruel/interrupt"
	"github.com/maruel/smoothled/player"
	"github.com/maruel/smoothled/smoothled"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"
)

// WebServer shows the LED output and the receiver's state.
type WebServer struct {
	p     *player.Player
	cond  sync.Cond
	frame []byte // Last output, replaced on each AddFrame.
	seq   int    // Incremented on each AddFrame.
}

func newWebServer(p *player.Player) *WebServer {
	return &WebServer{
		p:    p,
		cond: *sync.NewCond(&sync.Mutex{}),
	}
}

// StartWebServer serves the monitor on port.
func StartWebServer(port int, p *player.Player) *WebServer {
	w := newWebServer(p)
	fmt.Printf("Listening on %d\n", port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), w.handler()); err != nil {
			log.Printf("web server: %s", err)
		}
	}()
	go func() {
		<-interrupt.Channel
		w.cond.Broadcast()
	}()
	return w
}

// AddFrame publishes the last output bytes.
func (s *WebServer) AddFrame(b []byte) {
	f := make([]byte, len(b))
	copy(f, b)
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.frame = f
	s.seq++
	s.cond.Broadcast()
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/favicon.ico", s.favicon)
	mux.Handle("/stream", websocket.Handler(s.stream))
	mux.Handle("/metrics", promhttp.HandlerFor(newRegistry(s.p), promhttp.HandlerOpts{}))
	return loggingHandler{mux}
}

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write(read("root.html")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *WebServer) favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=2592000") // 30d
	w.Write(read("favicon.svg"))
}

// stream sends the LED output and the stats as WebSocket frames.
func (s *WebServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	seq := 0
	buf := &bytes.Buffer{}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for !interrupt.IsSet() {
		s.cond.Wait()
		if seq == s.seq {
			continue
		}
		seq = s.seq
		frame := s.frame
		s.cond.L.Unlock()
		// Do the actual I/O without the lock.
		err := s.send(w, buf, frame)
		s.cond.L.Lock()
		// To break out of the loop, the lock must be held.
		if err != nil {
			log.Printf("websocket err: %s", err)
			break
		}
	}
}

func (s *WebServer) send(w *websocket.Conn, buf *bytes.Buffer, frame []byte) error {
	// Frame P is for Pixels.
	buf.Reset()
	buf.WriteByte('P')
	encoder := base64.NewEncoder(base64.StdEncoding, buf)
	encoder.Write(frame)
	encoder.Close()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	// Frame S is for Stats.
	buf.Reset()
	buf.WriteByte('S')
	if err := json.NewEncoder(buf).Encode(s.p.Stats()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// monitor is a smoothled.Sink that forwards to a sink and publishes the
// output to the WebServer at most once per period.
type monitor struct {
	smoothled.Sink
	w      *WebServer
	period time.Duration
	buf    []byte
	last   time.Time
}

func (m *monitor) BeginTransaction() error {
	m.buf = m.buf[:0]
	return m.Sink.BeginTransaction()
}

func (m *monitor) WriteByte(b byte) error {
	m.buf = append(m.buf, b)
	return m.Sink.WriteByte(b)
}

func (m *monitor) EndTransaction() error {
	if now := time.Now(); now.Sub(m.last) >= m.period {
		m.last = now
		m.w.AddFrame(m.buf)
	}
	return m.Sink.EndTransaction()
}

func (m *monitor) AbortTransaction() error {
	m.buf = m.buf[:0]
	return m.Sink.AbortTransaction()
}

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (size int, err error) {
	size, err = l.ResponseWriter.Write(data)
	l.length += size
	return
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h := l.ResponseWriter.(http.Hijacker)
	return h.Hijack()
}

// ServeHTTP logs each HTTP request if -v is passed.
func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}
