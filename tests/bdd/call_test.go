package bdd

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"recruitment_chat_service/internal/chat/app"
	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/internal/chat/hub"
	"recruitment_chat_service/pkg/logger"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/mock"
)

// peer records the events delivered to one connected party.
type peer struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *peer) WriteJSON(v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := v.(domain.Event); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *peer) find(kind, callID string) (domain.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range p.events {
		if ev.Kind() == kind && ev["call_id"] == callID {
			return ev, true
		}
	}
	return nil, false
}

func (p *peer) waitFor(kind, callID string, timeout time.Duration) (domain.Event, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ev, ok := p.find(kind, callID); ok {
			return ev, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil, false
}

// callWorld is the per-scenario state.
type callWorld struct {
	expiry   time.Duration
	key      domain.RoomKey
	hub      *hub.Hub
	callRepo *app.MockCallRepository
	uc       *app.CallUseCase

	admin         app.Sender
	applicant     app.Sender
	adminPeer     *peer
	applicantPeer *peer

	// call ids the store treats as already resolved
	lostRace map[string]bool
}

func (w *callWorld) theCallWindowIs(ms int) error {
	w.expiry = time.Duration(ms) * time.Millisecond
	return nil
}

func (w *callWorld) partiesConnected(room string) error {
	key, err := domain.ParseRoomKey(room)
	if err != nil {
		return err
	}
	w.key = key
	w.hub = hub.NewHub()

	w.adminPeer = &peer{}
	w.applicantPeer = &peer{}
	adminID := w.hub.Register(w.adminPeer, key, domain.RoleAdmin, "9", "HR")
	applicantID := w.hub.Register(w.applicantPeer, key, domain.RoleApplicant, "42", "Jordan")
	w.hub.Join(key, adminID)
	w.hub.Join(key, applicantID)
	w.admin = app.Sender{ClientID: adminID, Role: domain.RoleAdmin, UserID: "9", UserName: "HR"}
	w.applicant = app.Sender{ClientID: applicantID, Role: domain.RoleApplicant, UserID: "42", UserName: "Jordan"}

	roomRepo := new(app.MockRoomRepository)
	roomRepo.On("FindOrCreate", mock.Anything, key).
		Return(&domain.ChatRoom{ID: 1, Kind: key.Kind, SubjectID: key.SubjectID}, nil).Maybe()

	w.callRepo = new(app.MockCallRepository)
	w.callRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil).Maybe()
	w.callRepo.On("Accept", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(true, nil).Maybe()
	w.callRepo.On("Decline", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(true, nil).Maybe()
	w.callRepo.On("Expire", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Maybe()

	w.uc = app.NewCallUseCase(w.callRepo, roomRepo, w.hub, w.expiry)
	return nil
}

func (w *callWorld) storeAlreadyExpired(callID string) error {
	// Replace the broad Accept expectation: this call id lost the race.
	w.lostRace[callID] = true
	return nil
}

func (w *callWorld) adminStartsCall(callID string) error {
	if w.lostRace[callID] {
		w.callRepo.ExpectedCalls = nil
		w.callRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Call")).Return(nil).Maybe()
		w.callRepo.On("Accept", mock.Anything, callID, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(false, nil).Maybe()
		w.callRepo.On("Expire", mock.Anything, callID).Return(false, nil).Maybe()
	}
	f := &domain.Frame{Type: domain.FrameCallRequest, CallID: callID}
	return w.uc.Request(context.Background(), w.key, w.admin, f)
}

func (w *callWorld) applicantIsRinging(callID string) error {
	if _, ok := w.applicantPeer.find(domain.EventCallIncoming, callID); !ok {
		return fmt.Errorf("applicant never saw %s for call %s", domain.EventCallIncoming, callID)
	}
	if _, ok := w.adminPeer.find(domain.EventCallIncoming, callID); ok {
		return fmt.Errorf("caller must not ring itself")
	}
	return nil
}

func (w *callWorld) applicantResponds(action, callID string) error {
	f := &domain.Frame{Type: domain.FrameCallResponse, CallID: callID, Action: action}
	return w.uc.Respond(context.Background(), w.key, w.applicant, f)
}

func (w *callWorld) applicantAccepts(callID string) error {
	return w.applicantResponds(domain.CallAccept, callID)
}

func (w *callWorld) applicantRejects(callID string) error {
	return w.applicantResponds(domain.CallReject, callID)
}

func (w *callWorld) bothReceiveSessionRoom(callID string) error {
	for name, p := range map[string]*peer{"admin": w.adminPeer, "applicant": w.applicantPeer} {
		ev, ok := p.find(domain.EventCallReady, callID)
		if !ok {
			return fmt.Errorf("%s never saw %s for call %s", name, domain.EventCallReady, callID)
		}
		if room, _ := ev["session_room"].(string); room == "" {
			return fmt.Errorf("%s got an empty session room", name)
		}
	}
	return nil
}

func (w *callWorld) nobodyReceivesSessionRoom(callID string) error {
	for name, p := range map[string]*peer{"admin": w.adminPeer, "applicant": w.applicantPeer} {
		if _, ok := p.find(domain.EventCallReady, callID); ok {
			return fmt.Errorf("%s received a session room for a resolved call", name)
		}
	}
	return nil
}

func (w *callWorld) adminToldRejected(callID string) error {
	ev, ok := w.adminPeer.find(domain.EventCallResponse, callID)
	if !ok {
		return fmt.Errorf("admin never saw %s for call %s", domain.EventCallResponse, callID)
	}
	if ev["action"] != domain.CallReject {
		return fmt.Errorf("expected reject, got %v", ev["action"])
	}
	return nil
}

func (w *callWorld) nobodyResponds() error {
	return nil
}

func (w *callWorld) bothToldExpired(callID string) error {
	for name, p := range map[string]*peer{"admin": w.adminPeer, "applicant": w.applicantPeer} {
		if _, ok := p.waitFor(domain.EventCallExpired, callID, time.Second); !ok {
			return fmt.Errorf("%s never saw %s for call %s", name, domain.EventCallExpired, callID)
		}
	}
	return nil
}

// InitializeCallScenario wires the call lifecycle steps.
func InitializeCallScenario(ctx *godog.ScenarioContext) {
	w := &callWorld{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*w = callWorld{
			expiry:   time.Hour,
			lostRace: make(map[string]bool),
		}
		return ctx, nil
	})

	ctx.Step(`^the call negotiation window is (\d+) milliseconds$`, w.theCallWindowIs)
	ctx.Step(`^an admin and an applicant are connected to room "([^"]*)"$`, w.partiesConnected)
	ctx.Step(`^the store already marked call "([^"]*)" expired$`, w.storeAlreadyExpired)
	ctx.Step(`^the admin starts call "([^"]*)"$`, w.adminStartsCall)
	ctx.Step(`^the applicant is ringing for call "([^"]*)"$`, w.applicantIsRinging)
	ctx.Step(`^the applicant accepts call "([^"]*)"$`, w.applicantAccepts)
	ctx.Step(`^the applicant rejects call "([^"]*)"$`, w.applicantRejects)
	ctx.Step(`^both parties receive a session room for call "([^"]*)"$`, w.bothReceiveSessionRoom)
	ctx.Step(`^nobody receives a session room for call "([^"]*)"$`, w.nobodyReceivesSessionRoom)
	ctx.Step(`^the admin is told call "([^"]*)" was rejected$`, w.adminToldRejected)
	ctx.Step(`^nobody responds$`, w.nobodyResponds)
	ctx.Step(`^both parties are told call "([^"]*)" expired$`, w.bothToldExpired)
}

func TestCallLifecycleFeatures(t *testing.T) {
	logger.SetNewNop()

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCallScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"featureFiles/call_lifecycle.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("call lifecycle feature failed")
	}
}
