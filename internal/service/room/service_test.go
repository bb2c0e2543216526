package room

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/repository/connection"
	conninmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	roomredis "github.com/watchparty/server/internal/repository/room/redis"
	"github.com/watchparty/server/internal/service/audit"
)

type fakeAuditSink struct {
	mu          sync.Mutex
	chats       []audit.RecordChatParams
	memberships []audit.RecordMembershipParams
	playback    []audit.RecordPlaybackParams
}

func (f *fakeAuditSink) RecordChat(p *audit.RecordChatParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, *p)
}

func (f *fakeAuditSink) RecordMembership(p *audit.RecordMembershipParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships = append(f.memberships, *p)
}

func (f *fakeAuditSink) RecordPlayback(p *audit.RecordPlaybackParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playback = append(f.playback, *p)
}

func newTestService(t *testing.T) (*service, *fakeAuditSink) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	sink := &fakeAuditSink{}
	roomRepo := roomredis.NewRepo(rc, 24*time.Hour, slog.Default())
	connRepo := conninmemory.NewRepo(slog.Default())

	return NewService(roomRepo, connRepo, sink, &Config{
		MembersLimit: 3,
		CodeLength:   6,
	}, slog.Default()), sink
}

func connect(t *testing.T, s *service, connId string) {
	t.Helper()
	require.NoError(t, s.Connect(context.Background(), &ConnectParams{
		Conn: connection.NewConn(connId, &websocket.Conn{}),
	}))
}

func connIds(conns []*connection.Conn) []string {
	ids := make([]string, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.Id())
	}
	return ids
}

func TestCreateRoomAndGetRoom(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	resp, err := s.CreateRoom(ctx, &CreateRoomParams{
		HostId:   "user-1",
		HostName: "alice",
		Title:    "movie night",
		WatchURL: "https://youtu.be/abc",
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), resp.Code)

	r, err := s.GetRoom(ctx, resp.Code)
	require.NoError(t, err)
	assert.Equal(t, "movie night", r.Title)
	assert.Equal(t, "https://youtu.be/abc", r.WatchURL)
	assert.Equal(t, "alice", r.HostName)
	assert.False(t, r.CreatedAt.IsZero())

	_, err = s.GetRoom(ctx, "NOPE00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomNotifiesExistingMembers(t *testing.T) {
	s, sink := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	connect(t, s, "conn-2")

	resp, err := s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	assert.Empty(t, resp.Conns, "first member has nobody to notify")

	resp, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: created.Code})
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-1"}, connIds(resp.Conns))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.memberships, 2)
	assert.Equal(t, "bob", sink.memberships[1].Username)
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	resp, err := s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	assert.Empty(t, resp.Conns, "re-join must not notify the connection about itself")

	relay, err := s.RelayChat(ctx, &RelayChatParams{ConnId: "conn-1", RoomCode: created.Code, Sender: "alice", Text: "hi"})
	require.NoError(t, err)
	assert.Len(t, relay.Conns, 1, "membership is a set, not a multiset")
}

func TestRejoinDoesNotRenotifyMembers(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	connect(t, s, "conn-2")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: created.Code})
	require.NoError(t, err)

	resp, err := s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: created.Code})
	require.NoError(t, err)
	assert.Empty(t, resp.Conns, "a member who never left must not be announced again")
}

func TestRoomExpirySetOnCreateAndRefreshedOnJoin(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	roomTTL := time.Hour
	s := NewService(
		roomredis.NewRepo(rc, roomTTL, slog.Default()),
		conninmemory.NewRepo(slog.Default()),
		&fakeAuditSink{},
		&Config{MembersLimit: 3, CodeLength: 6},
		slog.Default(),
	)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, roomTTL, mr.TTL("room:"+created.Code))

	mr.FastForward(30 * time.Minute)
	require.Equal(t, 30*time.Minute, mr.TTL("room:"+created.Code))

	connect(t, s, "conn-1")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)

	assert.Equal(t, roomTTL, mr.TTL("room:"+created.Code), "join must push the room expiry out")
	assert.Equal(t, roomTTL, mr.TTL("room:"+created.Code+":members"))

	// a re-join keeps the room alive too
	mr.FastForward(30 * time.Minute)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	assert.Equal(t, roomTTL, mr.TTL("room:"+created.Code))
}

func TestJoinRoomReplacesPriorBinding(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "a"})
	require.NoError(t, err)
	second, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "b"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	connect(t, s, "conn-2")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: first.Code})
	require.NoError(t, err)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: first.Code})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: second.Code})
	require.NoError(t, err)

	// conn-1 moved: relaying into the first room must no longer target it
	relay, err := s.RelayChat(ctx, &RelayChatParams{ConnId: "conn-2", RoomCode: first.Code, Sender: "bob", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-2"}, connIds(relay.Conns))

	// and conn-1 cannot emit into the room it left
	_, err = s.RelayChat(ctx, &RelayChatParams{ConnId: "conn-1", RoomCode: first.Code, Sender: "alice", Text: "hi"})
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestJoinRoomFull(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	for _, connId := range []string{"conn-1", "conn-2", "conn-3"} {
		connect(t, s, connId)
		_, err := s.JoinRoom(ctx, &JoinRoomParams{ConnId: connId, UserId: connId, Username: connId, RoomCode: created.Code})
		require.NoError(t, err)
	}

	connect(t, s, "conn-4")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-4", UserId: "user-4", Username: "dave", RoomCode: created.Code})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRelayChatTargetsExactlyRoomMembers(t *testing.T) {
	s, sink := newTestService(t)
	ctx := context.Background()

	roomA, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "a"})
	require.NoError(t, err)
	roomB, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-3", HostName: "carol", Title: "b"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	connect(t, s, "conn-2")
	connect(t, s, "conn-3")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: roomA.Code})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: roomA.Code})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-3", UserId: "user-3", Username: "carol", RoomCode: roomB.Code})
	require.NoError(t, err)

	relay, err := s.RelayChat(ctx, &RelayChatParams{ConnId: "conn-1", RoomCode: roomA.Code, Sender: "alice", Text: "hi"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, connIds(relay.Conns), "sender included, other rooms excluded")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.chats, 1)
	assert.Equal(t, "hi", sink.chats[0].Text)
}

func TestRelayAfterDisconnectSkipsDeadConnection(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	connect(t, s, "conn-2")
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-1", UserId: "user-1", Username: "alice", RoomCode: created.Code})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnId: "conn-2", UserId: "user-2", Username: "bob", RoomCode: created.Code})
	require.NoError(t, err)

	require.NoError(t, s.Disconnect(ctx, "conn-1"))

	relay, err := s.RelayPlayback(ctx, &RelayPlaybackParams{
		ConnId:   "conn-2",
		RoomCode: created.Code,
		Username: "bob",
		Event:    PlaybackEvent{Type: "pause", Time: 42},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-2"}, connIds(relay.Conns))
	assert.Equal(t, "pause", relay.Event.Type)
}

func TestRelayFromUnboundConnectionRejected(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "t"})
	require.NoError(t, err)

	connect(t, s, "conn-1")
	_, err = s.RelayChat(ctx, &RelayChatParams{ConnId: "conn-1", RoomCode: created.Code, Sender: "alice", Text: "hi"})
	assert.ErrorIs(t, err, ErrNotInRoom)

	_, err = s.RelayChat(ctx, &RelayChatParams{ConnId: "ghost", RoomCode: created.Code, Sender: "x", Text: "hi"})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestCreateRoomRetriesOnCodeCollision(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	codes := []string{"SAME00", "SAME00", "DIFF00"}
	i := 0
	s.generator = generatorFunc(func(int) string {
		code := codes[i]
		i++
		return code
	})

	first, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-1", HostName: "alice", Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "SAME00", first.Code)

	second, err := s.CreateRoom(ctx, &CreateRoomParams{HostId: "user-2", HostName: "bob", Title: "b"})
	require.NoError(t, err)
	assert.Equal(t, "DIFF00", second.Code, "collision with the existing code must be retried")
}

type generatorFunc func(length int) string

func (f generatorFunc) GenerateRandomString(length int) string {
	return f(length)
}
