package services

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
	"ourscreen/internal/infrastructure/distributed"
	"ourscreen/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var roomIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

func testRoomService() ports.RoomService {
	return NewRoomService(
		memory.NewMemoryRoomRepository(),
		memory.NewMemoryParticipantRepository(),
		memory.NewMemoryMessageRepository(),
		memory.NewMemoryMediaStateRepository(),
		distributed.NewLocalEventBus(),
		RoomServiceOptions{},
		zap.NewNop().Sugar(),
	)
}

func TestCreateRoom_SanitizesName(t *testing.T) {
	svc := testRoomService()

	room, err := svc.CreateRoom(context.Background(), ports.CreateRoomParams{
		Name: "My Movie   Night!!",
	})
	require.NoError(t, err)

	assert.Regexp(t, roomIDPattern, string(room.ID))
	assert.Regexp(t, `^my-movie-night-[0-9a-z]{5}$`, string(room.ID))
	assert.Equal(t, "My Movie   Night!!", room.Name)
	assert.Equal(t, domain.VisibilityPrivate, room.Visibility)
}

func TestCreateRoom_QuickRoom(t *testing.T) {
	svc := testRoomService()

	room, err := svc.CreateRoom(context.Background(), ports.CreateRoomParams{Quick: true})
	require.NoError(t, err)

	assert.Regexp(t, `^room-[0-9a-z]{7}$`, string(room.ID))
	assert.Equal(t, "Quick Room", room.Name)
}

func TestCreateRoom_SameNameYieldsDistinctIDs(t *testing.T) {
	svc := testRoomService()

	a, err := svc.CreateRoom(context.Background(), ports.CreateRoomParams{Name: "movie night"})
	require.NoError(t, err)
	b, err := svc.CreateRoom(context.Background(), ports.CreateRoomParams{Name: "movie night"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateRoom_PublicRoomAppearsInListing(t *testing.T) {
	svc := testRoomService()

	room, err := svc.CreateRoom(context.Background(), ports.CreateRoomParams{
		Name:       "open house",
		Visibility: domain.VisibilityPublic,
	})
	require.NoError(t, err)

	rooms, err := svc.ListPublicRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
}

func TestSetVisibility_MaintainsPublicMirror(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "flip me"})
	require.NoError(t, err)

	rooms, err := svc.ListPublicRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = svc.SetVisibility(ctx, room.ID, domain.VisibilityPublic)
	require.NoError(t, err)

	rooms, err = svc.ListPublicRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	_, err = svc.SetVisibility(ctx, room.ID, domain.VisibilityPrivate)
	require.NoError(t, err)

	rooms, err = svc.ListPublicRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestJoin_FirstParticipantBecomesHost(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "host test"})
	require.NoError(t, err)

	first, err := svc.Join(ctx, room.ID, ports.JoinParams{Name: "Alice"})
	require.NoError(t, err)
	second, err := svc.Join(ctx, room.ID, ports.JoinParams{Name: "Bob"})
	require.NoError(t, err)

	assert.True(t, first.IsHost)
	assert.False(t, second.IsHost)

	participants, err := svc.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	hosts := 0
	for _, p := range participants {
		if p.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
}

func TestLeave_HostLeavingPromotesLongestPresent(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "promotion"})
	require.NoError(t, err)

	host, err := svc.Join(ctx, room.ID, ports.JoinParams{Name: "Alice"})
	require.NoError(t, err)
	second, err := svc.Join(ctx, room.ID, ports.JoinParams{Name: "Bob"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.ID, ports.JoinParams{Name: "Carol"})
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, room.ID, host.Key))

	participants, err := svc.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	for _, p := range participants {
		if p.Key == second.Key {
			assert.True(t, p.IsHost, "longest-present participant should be promoted")
		} else {
			assert.False(t, p.IsHost)
		}
	}
}

func TestLeave_UnknownParticipant(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "empty"})
	require.NoError(t, err)

	err = svc.Leave(ctx, room.ID, "no-such-key")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestDeleteRoom_Cascades(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{
		Name:       "doomed",
		Visibility: domain.VisibilityPublic,
	})
	require.NoError(t, err)

	_, err = svc.Join(ctx, room.ID, ports.JoinParams{Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, room.ID, "Alice", "hello", "")
	require.NoError(t, err)
	_, err = svc.SetMediaState(ctx, room.ID, &domain.MediaState{URL: "https://example.com/v.mp4"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRoom(ctx, room.ID))

	_, err = svc.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	rooms, err := svc.ListPublicRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestSendMessage_OrderedHistory(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "chatty"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, room.ID, "Alice", text, "")
		require.NoError(t, err)
	}

	messages, err := svc.ListMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Text)
	assert.Equal(t, "three", messages[2].Text)
}

func TestSendMessage_RejectsEmptyText(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "strict"})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, room.ID, "Alice", "   ", "")
	assert.Error(t, err)
}

func TestMediaState_LastWriterWins(t *testing.T) {
	svc := testRoomService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "player"})
	require.NoError(t, err)

	// Fresh room reads as an empty state
	state, err := svc.GetMediaState(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, state.URL)

	_, err = svc.SetMediaState(ctx, room.ID, &domain.MediaState{
		URL:       "https://example.com/a.mp4",
		IsPlaying: true,
	})
	require.NoError(t, err)

	_, err = svc.SetMediaState(ctx, room.ID, &domain.MediaState{
		URL:         "https://example.com/b.mp4",
		IsPlaying:   false,
		CurrentTime: 12.5,
	})
	require.NoError(t, err)

	state, err = svc.GetMediaState(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.mp4", state.URL)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 12.5, state.CurrentTime)
	assert.False(t, state.UpdatedAt.IsZero())
}

// slowCountParticipantRepository widens the window between reading the
// participant count and adding the participant, the way a networked
// repository would.
type slowCountParticipantRepository struct {
	ports.ParticipantRepository
}

func (r *slowCountParticipantRepository) Count(ctx context.Context, roomID domain.RoomID) (int, error) {
	count, err := r.ParticipantRepository.Count(ctx, roomID)
	time.Sleep(2 * time.Millisecond)
	return count, err
}

func TestJoin_ConcurrentJoinersGetExactlyOneHost(t *testing.T) {
	svc := NewRoomService(
		memory.NewMemoryRoomRepository(),
		&slowCountParticipantRepository{memory.NewMemoryParticipantRepository()},
		memory.NewMemoryMessageRepository(),
		memory.NewMemoryMediaStateRepository(),
		distributed.NewLocalEventBus(),
		RoomServiceOptions{},
		zap.NewNop().Sugar(),
	)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, ports.CreateRoomParams{Name: "rush hour"})
	require.NoError(t, err)

	const joiners = 16
	var wg sync.WaitGroup
	errs := make(chan error, joiners)

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Join(ctx, room.ID, ports.JoinParams{Name: fmt.Sprintf("guest-%d", n)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	participants, err := svc.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, participants, joiners)

	hosts := 0
	for _, p := range participants {
		if p.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
}
