package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
	"ourscreen/pkg/cache"
	"ourscreen/pkg/utils"
	"ourscreen/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	createRetries   = 3
	joinLockTimeout = 5 * time.Second
)

// Locker serializes the join of one room across server instances so that
// exactly one joiner of an empty room becomes host.
type Locker interface {
	Acquire(ctx context.Context, timeout time.Duration) error
	Release(ctx context.Context) error
}

// LockFactory builds a locker for a room key. Nil means single-instance
// deployment; joins are then serialized by the repository only.
type LockFactory func(key string) Locker

type roomService struct {
	rooms        ports.RoomRepository
	participants ports.ParticipantRepository
	messages     ports.MessageRepository
	media        ports.MediaStateRepository
	events       ports.EventPublisher

	suffixLength      int
	quickSuffixLength int
	historyLimit      int

	publicList *cache.Cache[[]*domain.Room]
	newLock    LockFactory
	logger     *zap.SugaredLogger

	// Per-room join serialization for the single-instance deployment,
	// where no distributed lock factory is configured.
	joinMu    sync.Mutex
	joinLocks map[domain.RoomID]*sync.Mutex
}

// RoomServiceOptions bundles the tuning knobs of NewRoomService.
type RoomServiceOptions struct {
	SuffixLength       int
	QuickSuffixLength  int
	HistoryLimit       int
	PublicListCacheTTL time.Duration
	LockFactory        LockFactory
}

func NewRoomService(
	rooms ports.RoomRepository,
	participants ports.ParticipantRepository,
	messages ports.MessageRepository,
	media ports.MediaStateRepository,
	events ports.EventPublisher,
	opts RoomServiceOptions,
	logger *zap.SugaredLogger,
) ports.RoomService {
	if opts.SuffixLength <= 0 {
		opts.SuffixLength = 5
	}
	if opts.QuickSuffixLength <= 0 {
		opts.QuickSuffixLength = 7
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 500
	}
	if opts.PublicListCacheTTL <= 0 {
		opts.PublicListCacheTTL = 5 * time.Second
	}

	return &roomService{
		rooms:             rooms,
		participants:      participants,
		messages:          messages,
		media:             media,
		events:            events,
		suffixLength:      opts.SuffixLength,
		quickSuffixLength: opts.QuickSuffixLength,
		historyLimit:      opts.HistoryLimit,
		publicList:        cache.New[[]*domain.Room](opts.PublicListCacheTTL),
		newLock:           opts.LockFactory,
		logger:            logger,
		joinLocks:         make(map[domain.RoomID]*sync.Mutex),
	}
}

func (s *roomService) CreateRoom(ctx context.Context, params ports.CreateRoomParams) (*domain.Room, error) {
	name := params.Name
	if params.Quick {
		name = "Quick Room"
	} else if err := validation.ValidateRoomName(name); err != nil {
		return nil, err
	}

	visibility := params.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	now := time.Now()
	room := &domain.Room{
		Name:       name,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Suffix collisions are vanishingly rare but cheap to retry
	var err error
	for i := 0; i < createRetries; i++ {
		if params.Quick {
			room.ID = domain.RoomID(utils.QuickRoomID(s.quickSuffixLength))
		} else {
			room.ID = domain.RoomID(utils.NewRoomID(name, s.suffixLength))
		}

		err = s.rooms.Create(ctx, room)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrRoomExists) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if room.IsPublic() {
		if err := s.rooms.SetPublic(ctx, room.ID, true); err != nil {
			s.logger.Warnw("failed to mirror room into public listing", "room_id", room.ID, "error", err)
		}
		s.publicList.Delete("public")
	}

	s.logger.Infow("room created", "room_id", room.ID, "visibility", room.Visibility)
	return room, nil
}

func (s *roomService) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *roomService) ListPublicRooms(ctx context.Context) ([]*domain.Room, error) {
	if rooms, ok := s.publicList.Get("public"); ok {
		return rooms, nil
	}

	rooms, err := s.rooms.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	s.publicList.Set("public", rooms)
	return rooms, nil
}

func (s *roomService) SetVisibility(ctx context.Context, id domain.RoomID, visibility domain.Visibility) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if room.Visibility == visibility {
		return room, nil
	}

	room.Visibility = visibility
	room.UpdatedAt = time.Now()
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}

	if err := s.rooms.SetPublic(ctx, id, room.IsPublic()); err != nil {
		s.logger.Warnw("failed to update public listing", "room_id", id, "error", err)
	}
	s.publicList.Delete("public")

	s.publishRoomUpdated(ctx, room)
	return room, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return err
	}

	// Cascade: participants, messages and media state go with the room
	if err := s.participants.RemoveAll(ctx, id); err != nil {
		return err
	}
	if err := s.messages.RemoveAll(ctx, id); err != nil {
		return err
	}
	if err := s.media.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrMediaStateNotFound) {
		return err
	}
	if err := s.rooms.SetPublic(ctx, id, false); err != nil {
		s.logger.Warnw("failed to remove room from public listing", "room_id", id, "error", err)
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}

	s.publicList.Delete("public")

	if err := s.events.PublishRoomDeleted(ctx, id); err != nil {
		s.logger.Warnw("failed to publish room deletion", "room_id", id, "error", err)
	}

	s.logger.Infow("room deleted", "room_id", id)
	return nil
}

// Join adds a participant. The first participant into an empty room is
// recorded as host; the flag is a server-held designation, not a grant.
func (s *roomService) Join(ctx context.Context, roomID domain.RoomID, params ports.JoinParams) (*domain.Participant, error) {
	params.Name = utils.SanitizeString(params.Name)
	if err := validation.ValidateDisplayName(params.Name); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockJoin(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	count, err := s.participants.Count(ctx, roomID)
	if err != nil {
		return nil, err
	}

	id := params.ID
	if id == "" {
		id = uuid.New().String()
	}

	p := &domain.Participant{
		Key:       domain.ParticipantKey(uuid.New().String()),
		ID:        id,
		Name:      params.Name,
		AvatarURL: params.AvatarURL,
		Hint:      params.Hint,
		IsHost:    count == 0,
		JoinedAt:  time.Now(),
	}

	if err := s.participants.Add(ctx, roomID, p); err != nil {
		return nil, err
	}

	room.ParticipantCount = count + 1
	room.UpdatedAt = time.Now()
	if err := s.rooms.Update(ctx, room); err != nil {
		s.logger.Warnw("failed to update participant count", "room_id", roomID, "error", err)
	}

	if err := s.events.PublishParticipantJoined(ctx, roomID, p); err != nil {
		s.logger.Warnw("failed to publish join", "room_id", roomID, "error", err)
	}

	s.logger.Infow("participant joined", "room_id", roomID, "participant_key", p.Key, "is_host", p.IsHost)
	return p, nil
}

// lockJoin serializes the count-then-add window of Join so that exactly
// one joiner of an empty room observes count==0. Multi-instance
// deployments use the configured distributed lock; otherwise a per-room
// mutex covers the single process.
func (s *roomService) lockJoin(ctx context.Context, roomID domain.RoomID) (func(), error) {
	if s.newLock != nil {
		lock := s.newLock("join:" + string(roomID))
		if err := lock.Acquire(ctx, joinLockTimeout); err != nil {
			return nil, err
		}
		return func() { lock.Release(ctx) }, nil
	}

	s.joinMu.Lock()
	mu, ok := s.joinLocks[roomID]
	if !ok {
		mu = &sync.Mutex{}
		s.joinLocks[roomID] = mu
	}
	s.joinMu.Unlock()

	mu.Lock()
	return mu.Unlock, nil
}

func (s *roomService) Leave(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error {
	p, err := s.participants.GetByKey(ctx, roomID, key)
	if err != nil {
		return err
	}

	if err := s.participants.Remove(ctx, roomID, key); err != nil {
		return err
	}

	remaining, err := s.participants.List(ctx, roomID)
	if err != nil {
		return err
	}

	// Host leaving promotes the longest-present remaining participant
	if p.IsHost && len(remaining) > 0 {
		next := remaining[0]
		for _, r := range remaining[1:] {
			if r.JoinedAt.Before(next.JoinedAt) {
				next = r
			}
		}
		next.IsHost = true
		if err := s.participants.Update(ctx, roomID, next); err != nil {
			s.logger.Warnw("failed to promote host", "room_id", roomID, "error", err)
		}
	}

	if room, err := s.rooms.GetByID(ctx, roomID); err == nil {
		room.ParticipantCount = len(remaining)
		room.UpdatedAt = time.Now()
		if err := s.rooms.Update(ctx, room); err != nil {
			s.logger.Warnw("failed to update participant count", "room_id", roomID, "error", err)
		}
	}

	if err := s.events.PublishParticipantLeft(ctx, roomID, key); err != nil {
		s.logger.Warnw("failed to publish leave", "room_id", roomID, "error", err)
	}

	s.logger.Infow("participant left", "room_id", roomID, "participant_key", key)
	return nil
}

func (s *roomService) ListParticipants(ctx context.Context, roomID domain.RoomID) ([]*domain.Participant, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.participants.List(ctx, roomID)
}

func (s *roomService) SendMessage(ctx context.Context, roomID domain.RoomID, user, text, avatar string) (*domain.Message, error) {
	user = utils.SanitizeString(user)
	text = utils.SanitizeString(text)
	if err := validation.ValidateNonEmptyString(user, "user"); err != nil {
		return nil, err
	}
	if err := validation.ValidateMessageText(text); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		User:      user,
		Text:      text,
		Timestamp: time.Now(),
		Avatar:    avatar,
	}

	if err := s.messages.Append(ctx, roomID, msg); err != nil {
		return nil, err
	}

	if err := s.events.PublishMessageCreated(ctx, roomID, msg); err != nil {
		s.logger.Warnw("failed to publish message", "room_id", roomID, "error", err)
	}

	return msg, nil
}

func (s *roomService) ListMessages(ctx context.Context, roomID domain.RoomID) ([]*domain.Message, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.messages.List(ctx, roomID, s.historyLimit)
}

func (s *roomService) GetMediaState(ctx context.Context, roomID domain.RoomID) (*domain.MediaState, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	state, err := s.media.Get(ctx, roomID)
	if errors.Is(err, domain.ErrMediaStateNotFound) {
		// A room with no selection yet reads as an empty state
		return &domain.MediaState{}, nil
	}
	return state, err
}

func (s *roomService) SetMediaState(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) (*domain.MediaState, error) {
	if state.URL != "" {
		if err := validation.ValidateMediaURL(state.URL); err != nil {
			return nil, err
		}
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	state.UpdatedAt = time.Now()
	if err := s.media.Set(ctx, roomID, state); err != nil {
		return nil, err
	}

	if err := s.events.PublishMediaUpdated(ctx, roomID, state); err != nil {
		s.logger.Warnw("failed to publish media state", "room_id", roomID, "error", err)
	}

	return state, nil
}

func (s *roomService) publishRoomUpdated(ctx context.Context, room *domain.Room) {
	if err := s.events.PublishRoomUpdated(ctx, room); err != nil {
		s.logger.Warnw("failed to publish room update", "room_id", room.ID, "error", err)
	}
}
