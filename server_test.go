// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"
	"github.com/gogama/idempotent/timeout"
)

var httpServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var httpsServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var http2Server = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var servers = []*httptest.Server{httpServer, httpsServer, http2Server}

func TestMain(m *testing.M) {
	httpServer.Start()
	httpsServer.StartTLS()
	http2Server.EnableHTTP2 = true
	http2Server.StartTLS()
	waitForServerStart(httpServer)
	waitForServerStart(httpsServer)
	waitForServerStart(http2Server)
	code := m.Run()
	httpServer.Close()
	httpsServer.Close()
	http2Server.Close()
	os.Exit(code)
}

func waitForServerStart(server *httptest.Server) {
	mw := &Middleware{
		Handler:       DoerHandler(server.Client()),
		RetryPolicy:   retry.ExponentialBackoff(20, 10*time.Millisecond, 500*time.Millisecond),
		TimeoutPolicy: timeout.Fixed(2 * time.Second),
	}
	env := (&serverInstruction{StatusCode: 200}).toEnv(context.Background(), "GET", server)
	res, err := mw.Handle(env)
	if err != nil || res.StatusCode != 200 {
		panic(fmt.Sprintf("Test server startup failed with result %v and error %v", res, err))
	}
}

func serverName(server *httptest.Server) string {
	switch server {
	case httpServer:
		return "http"
	case httpsServer:
		return "https"
	case http2Server:
		return "http2"
	default:
		panic("unknown server")
	}
}

type serverInstruction struct {
	HeaderPause time.Duration
	StatusCode  int
	Body        string
}

func (i *serverInstruction) toJSON() []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}

	return b
}

func (i *serverInstruction) toEnv(ctx context.Context, method string, server *httptest.Server) *request.Env {
	env, err := request.NewEnvWithContext(ctx, method, server.URL, i.toJSON())
	if err != nil {
		panic(err)
	}

	return env
}

func (i *serverInstruction) fromRequest(req *http.Request) error {
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()

	if err != nil {
		return err
	}

	return json.Unmarshal(b, i)
}

// serverHandler answers each request as instructed by the JSON-encoded
// serverInstruction in the request body. It keeps no state between
// requests.
func serverHandler(w http.ResponseWriter, req *http.Request) {
	var i serverInstruction
	err := i.fromRequest(req)
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read request: %s", err.Error()))
		return
	}

	if i.StatusCode == 0 {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("bad StatusCode in instruction: %v", i))
		return
	}

	header := w.Header()
	header.Set("Content-Length", strconv.Itoa(len(i.Body)))
	header.Set("X-Method", req.Method)

	// Pause to allow the client to play with timeouts.
	select {
	case <-time.After(i.HeaderPause):
	case <-req.Context().Done():
		return
	}

	w.WriteHeader(i.StatusCode)
	_, _ = io.WriteString(w, i.Body)
}
