package server_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelageech/freshserv/accesslog"
	"github.com/pelageech/freshserv/config"
	"github.com/pelageech/freshserv/nocache"
	"github.com/pelageech/freshserv/server"
)

const indexBody = "<html>hello</html>"

func newRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "index.html"), []byte(indexBody), 0o644)
	require.NoError(t, err)
	return root
}

func checkFreshness(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, nocache.CacheControlValue, resp.Header.Get("Cache-Control"))
	assert.Equal(t, nocache.PragmaValue, resp.Header.Get("Pragma"))
	assert.Equal(t, nocache.ExpiresValue, resp.Header.Get("Expires"))
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestServeAndShutdown(t *testing.T) {
	root := newRoot(t)

	cfg := config.Default()
	cfg.Port = 0
	cfg.Root = root

	logger := log.New(io.Discard)
	var bannerBuf, accessBuf bytes.Buffer

	access := accesslog.New(&accessBuf, logger)
	h := access.Wrap(nocache.FileHandler(cfg.Root))

	s, err := server.New(cfg, h, logger, &bannerBuf)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- s.Serve(ctx, ln)
	}()

	base := "http://" + addr

	resp, body := get(t, base+"/index.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, indexBody, body)
	checkFreshness(t, resp)

	resp, _ = get(t, base+"/missing.txt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	checkFreshness(t, resp)

	// A refresh must hit the same handler chain again.
	resp, body = get(t, base+"/index.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, indexBody, body)
	checkFreshness(t, resp)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}

	// The socket must be free again once Serve returns.
	relisten, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, relisten.Close())

	wantBanner := fmt.Sprintf("Server running at http://%s/\n", addr) +
		"Cache-busting enabled - files will always be fresh\n" +
		"Press Ctrl+C to stop\n" +
		"Server stopped\n"
	assert.Equal(t, wantBanner, bannerBuf.String())

	wantAccess := []string{
		`127.0.0.1 - "GET /index.html HTTP/1.1" 200 18`,
		`127.0.0.1 - "GET /missing.txt HTTP/1.1" 404 19`,
		`127.0.0.1 - "GET /index.html HTTP/1.1" 200 18`,
	}
	gotAccess := strings.Split(strings.TrimRight(accessBuf.String(), "\n"), "\n")
	assert.Equal(t, wantAccess, gotAccess)
}

func TestRunBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := config.Default()
	cfg.Port = taken.Addr().(*net.TCPAddr).Port
	cfg.Root = t.TempDir()

	logger := log.New(io.Discard)
	s, err := server.New(cfg, http.NotFoundHandler(), logger, io.Discard)
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, cfg.Addr())
}

func TestNewValidation(t *testing.T) {
	cfg := config.Default()
	logger := log.New(io.Discard)

	_, err := server.New(cfg, nil, logger, io.Discard)
	assert.ErrorIs(t, err, server.ErrNilHandler)

	_, err = server.New(cfg, http.NotFoundHandler(), nil, io.Discard)
	assert.ErrorIs(t, err, server.ErrNilLogger)
}
