package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/internal/chat/hub"
	"recruitment_chat_service/internal/chat/repository"
	errprocess "recruitment_chat_service/pkg/err"
	"recruitment_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCallExpiry is the call-negotiation timeout window.
const DefaultCallExpiry = 30 * time.Second

// CallUseCase runs the call signaling state machine. It is the sole owner of
// the outstanding expiry timers; a response frame and a firing timer race to
// transition the same calling call, and the conditional store update decides
// the winner. The loser's work is silently absorbed.
type CallUseCase struct {
	callRepo repository.CallRepository
	roomRepo repository.RoomRepository
	hub      *hub.Hub
	expiry   time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewCallUseCase init call use case. A zero expiry selects the default 30s
// window.
func NewCallUseCase(callRepo repository.CallRepository, roomRepo repository.RoomRepository, h *hub.Hub, expiry time.Duration) *CallUseCase {
	if expiry <= 0 {
		expiry = DefaultCallExpiry
	}
	return &CallUseCase{
		callRepo: callRepo,
		roomRepo: roomRepo,
		hub:      h,
		expiry:   expiry,
		timers:   make(map[string]*time.Timer),
	}
}

// Request persists a new calling call, arms its expiry timer, and rings the
// other room members.
func (uc *CallUseCase) Request(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) error {
	callID := f.CallID
	if callID == "" {
		return errprocess.Set("video_call_request requires call_id")
	}

	room, err := uc.roomRepo.FindOrCreate(ctx, key)
	if err != nil {
		return err
	}

	callerName := f.CallerName
	if callerName == "" {
		callerName = sender.UserName
	}

	call := &domain.Call{
		CallID:    callID,
		RoomID:    room.ID,
		Initiator: callerName,
		Status:    domain.CallCalling,
		StartedAt: time.Now().Unix(),
	}
	if err := uc.callRepo.Create(ctx, call); err != nil {
		return err
	}

	uc.mu.Lock()
	uc.timers[callID] = time.AfterFunc(uc.expiry, func() {
		uc.expire(callID, key)
	})
	uc.mu.Unlock()

	ev := domain.NewEvent(domain.EventCallIncoming)
	ev["call_id"] = callID
	ev["room"] = key.String()
	ev["caller_name"] = callerName
	uc.hub.Broadcast(key, ev, sender.ClientID)
	return nil
}

// Respond handles accept/reject of a ringing call. If the expiry timer won
// the race first, the response is a no-op.
func (uc *CallUseCase) Respond(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) error {
	if f.CallID == "" {
		return errprocess.Set("video_call_response requires call_id")
	}
	if f.Action != domain.CallAccept && f.Action != domain.CallReject {
		return errprocess.Set("video_call_response action must be accept or reject")
	}

	// Stopping the timer is an optimization only: if it already fired, the
	// conditional transition below still picks exactly one winner.
	uc.cancelTimer(f.CallID)

	if f.Action == domain.CallAccept {
		sessionRoom := uuid.New().String()
		applied, err := uc.callRepo.Accept(ctx, f.CallID, sender.UserName, sessionRoom)
		if err != nil {
			return err
		}
		if !applied {
			logger.Log.Info("call response lost the race", zap.String("callID", f.CallID))
			return nil
		}

		ev := domain.NewEvent(domain.EventCallReady)
		ev["call_id"] = f.CallID
		ev["room"] = key.String()
		ev["session_room"] = sessionRoom
		if f.Preferences != nil {
			ev["preferences"] = f.Preferences
		}
		uc.hub.Broadcast(key, ev, "")
		return nil
	}

	applied, err := uc.callRepo.Decline(ctx, f.CallID, sender.UserName)
	if err != nil {
		return err
	}
	if !applied {
		logger.Log.Info("call response lost the race", zap.String("callID", f.CallID))
		return nil
	}

	ev := domain.NewEvent(domain.EventCallResponse)
	ev["call_id"] = f.CallID
	ev["room"] = key.String()
	ev["action"] = domain.CallReject
	ev["responder_name"] = sender.UserName
	uc.hub.Broadcast(key, ev, sender.ClientID)
	return nil
}

// End hangs up an active call and reports the computed duration to the room.
// Ending a call that is not active is silently absorbed.
func (uc *CallUseCase) End(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) error {
	if f.CallID == "" {
		return errprocess.Set("video_call_end requires call_id")
	}

	applied, err := uc.callRepo.End(ctx, f.CallID, time.Now())
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	ev := domain.NewEvent(domain.EventCallEnded)
	ev["call_id"] = f.CallID
	ev["room"] = key.String()
	if call, err := uc.callRepo.FindByCallID(ctx, f.CallID); err == nil {
		ev["duration_sec"] = call.DurationSec
	}
	uc.hub.Broadcast(key, ev, "")
	return nil
}

// MarkMissed applies the administrative calling→missed transition, driven by
// the web application over the redis admin channel.
func (uc *CallUseCase) MarkMissed(ctx context.Context, callID string) {
	uc.cancelTimer(callID)
	applied, err := uc.callRepo.Missed(ctx, callID)
	if err != nil {
		logger.Log.Error("mark missed failed", zap.String("callID", callID), zap.Error(err))
		return
	}
	if applied {
		logger.Log.Info("call marked missed", zap.String("callID", callID))
	}
}

// ListenAdminCommands subscribes to the web application's administrative call
// channel until ctx is cancelled.
func (uc *CallUseCase) ListenAdminCommands(ctx context.Context, ps repository.PubSub) {
	ps.Subscribe(ctx, repository.AdminCallChannel, func(payload []byte) {
		var cmd struct {
			CallID string `json:"call_id"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal(payload, &cmd); err != nil {
			logger.Log.Errorf("admin call command unmarshal error:", err)
			return
		}
		if cmd.Action == "missed" && cmd.CallID != "" {
			uc.MarkMissed(ctx, cmd.CallID)
		}
	})
}

// expire is the timer callback. The conditional Expire transition guards
// against a response that slipped in between the firing and this call, so a
// cancellation racing the scheduler can never produce a second outcome.
func (uc *CallUseCase) expire(callID string, key domain.RoomKey) {
	uc.mu.Lock()
	delete(uc.timers, callID)
	uc.mu.Unlock()

	applied, err := uc.callRepo.Expire(context.Background(), callID)
	if err != nil {
		logger.Log.Error("call expiry failed", zap.String("callID", callID), zap.Error(err))
		return
	}
	if !applied {
		// A response won the race; nothing to announce.
		return
	}

	ev := domain.NewEvent(domain.EventCallExpired)
	ev["call_id"] = callID
	ev["room"] = key.String()
	uc.hub.Broadcast(key, ev, "")
}

func (uc *CallUseCase) cancelTimer(callID string) {
	uc.mu.Lock()
	if t, ok := uc.timers[callID]; ok {
		t.Stop()
		delete(uc.timers, callID)
	}
	uc.mu.Unlock()
}
