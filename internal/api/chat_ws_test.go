package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/peakchat/internal/identity"
	"github.com/ashureev/peakchat/internal/session"
)

func dialChat(t *testing.T, env *testEnv) (*websocket.Conn, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", identity.AnonCookieName+"="+testUser)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, srv
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var frame serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame clientFrame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, frame))
}

func TestChatWSEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 10, 100)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/session", "").Code)

	conn, _ := dialChat(t, env)
	require.Equal(t, frameIdle, readFrame(t, conn).Type)

	writeFrame(t, conn, clientFrame{Type: frameEnd})
	ended := readFrame(t, conn)
	require.Equal(t, frameEnded, ended.Type)
	assert.Equal(t, session.OutcomeEndedByUser, ended.Session.Outcome)
	assert.Equal(t, session.StateFinalized, ended.Session.State)
}

func TestChatWSPingAndNoSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 10, 100)
	conn, _ := dialChat(t, env)

	writeFrame(t, conn, clientFrame{Type: framePing})
	assert.Equal(t, framePong, readFrame(t, conn).Type)

	writeFrame(t, conn, clientFrame{Type: frameSend, Content: "hello"})
	assert.Equal(t, frameBusy, readFrame(t, conn).Type)
	errFrame := readFrame(t, conn)
	assert.Equal(t, frameError, errFrame.Type)
	assert.Equal(t, http.StatusNotFound, errFrame.Status)

	writeFrame(t, conn, clientFrame{Type: "resize"})
	assert.Equal(t, http.StatusBadRequest, readFrame(t, conn).Status)
}

func TestChatWSConversationUntilCap(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 2, 100)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/session", "").Code)

	conn, _ := dialChat(t, env)

	idle := readFrame(t, conn)
	require.Equal(t, frameIdle, idle.Type)
	require.NotNil(t, idle.Session)
	assert.Len(t, idle.Session.Messages, 2)
	assert.Eventually(t, func() bool { return env.handler.conns.Count(testUser) == 1 }, time.Second, 5*time.Millisecond)

	writeFrame(t, conn, clientFrame{Type: frameSend, Content: "  "})
	assert.Equal(t, frameBusy, readFrame(t, conn).Type)
	blank := readFrame(t, conn)
	assert.Equal(t, frameError, blank.Type)
	assert.Equal(t, http.StatusBadRequest, blank.Status)
	assert.Equal(t, frameIdle, readFrame(t, conn).Type)

	writeFrame(t, conn, clientFrame{Type: frameSend, Content: "first"})
	assert.Equal(t, frameBusy, readFrame(t, conn).Type)
	userMsg := readFrame(t, conn)
	require.Equal(t, frameMessage, userMsg.Type)
	assert.Equal(t, "first", userMsg.Message.Content)
	reply := readFrame(t, conn)
	require.Equal(t, frameMessage, reply.Type)
	assert.Equal(t, "reply to: first", reply.Message.Content)
	require.Len(t, reply.Segments, 1)
	assert.False(t, reply.Segments[0].NonVerbal)
	after := readFrame(t, conn)
	require.Equal(t, frameIdle, after.Type)
	assert.Equal(t, 1, after.Session.ResponseCount)

	writeFrame(t, conn, clientFrame{Type: frameSend, Content: "second"})
	assert.Equal(t, frameBusy, readFrame(t, conn).Type)
	assert.Equal(t, "second", readFrame(t, conn).Message.Content)
	capped := readFrame(t, conn)
	require.Equal(t, frameCapped, capped.Type)
	assert.Equal(t, session.NoticeSessionEnding, capped.Notice)
	assert.Equal(t, session.StateFinalized, capped.Session.State)

	assert.Equal(t, session.OutcomeCapped, capped.Session.Outcome)

	writeFrame(t, conn, clientFrame{Type: frameEnd})
	gone := readFrame(t, conn)
	require.Equal(t, frameError, gone.Type)
	assert.Equal(t, http.StatusGone, gone.Status)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/session/feedback", "").Code)
}
