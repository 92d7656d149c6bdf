package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/plugin/hook"
	"github.com/kasuganosora/hikiquest/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	srv   *httptest.Server
	c     cache.Cache
	ps    cache.PubSub
	h     *Handler
	token string
}

func newHarness(t *testing.T, accountID int64) *harness {
	t.Helper()
	c, ps := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "sse-secret", JWTTTLH: time.Hour}
	token, err := mw.GenerateToken(accountID, sec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), mw.SessionKey(token), "1", time.Hour))

	h := NewHandler(ps, c, zap.NewNop())
	r := gin.New()
	r.GET("/sse", mw.Auth(sec, c), h.ServeSSE)
	r.POST("/announce", h.AnnounceHandler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, c: c, ps: ps, h: h, token: token}
}

// readEvent returns the next event name and data line.
func readEvent(t *testing.T, rd *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestServeSSE_RequiresAuth(t *testing.T) {
	hs := newHarness(t, 1)
	resp, err := http.Get(hs.srv.URL + "/sse")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeSSE_StreamsAccountEvents(t *testing.T) {
	hs := newHarness(t, 7)
	hc := hook.NewHookCenter()
	RegisterHooks(hc, hs.ps, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.srv.URL+"/sse?token="+hs.token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	name, data := readEvent(t, rd)
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, `"account_id":7`)

	online, err := hs.c.SIsMember(context.Background(), OnlineKey, "7")
	require.NoError(t, err)
	assert.True(t, online)

	// Another account's event must not arrive.
	require.NoError(t, hc.Trigger(context.Background(), &hook.Event{Name: hook.OnProfileSaved, AccountID: 8}))
	require.NoError(t, hc.Trigger(context.Background(), &hook.Event{
		Name:      hook.OnQuestComplete,
		AccountID: 7,
		QuestID:   "quest_preparation_1",
	}))
	name, data = readEvent(t, rd)
	assert.Equal(t, hook.OnQuestComplete, name)
	assert.Contains(t, data, "quest_preparation_1")

	require.NoError(t, hs.h.Announce(context.Background(), "점검 안내"))
	name, data = readEvent(t, rd)
	assert.Equal(t, "announce", name)
	assert.Contains(t, data, "점검 안내")

	cancel()
	assert.Eventually(t, func() bool {
		ok, _ := hs.c.SIsMember(context.Background(), OnlineKey, "7")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAnnounceHandler_Validation(t *testing.T) {
	hs := newHarness(t, 1)
	resp, err := http.Post(hs.srv.URL+"/announce", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "announce", eventName(&cache.Message{Channel: announceChannel, Payload: `{"event":"x"}`}))
	assert.Equal(t, "on_profile_saved", eventName(&cache.Message{Channel: "quest:1", Payload: `{"event":"on_profile_saved"}`}))
	assert.Equal(t, "message", eventName(&cache.Message{Channel: "quest:1", Payload: "plain"}))
}
