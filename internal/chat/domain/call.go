package domain

// CallStatus finite call state. calling may move to active, declined, expired
// or missed; active may move to ended; everything else is terminal.
type CallStatus string

const (
	// CallCalling initiator is waiting for the counterpart to respond
	CallCalling CallStatus = "calling"
	// CallActive both parties accepted, session room issued
	CallActive CallStatus = "active"
	// CallDeclined counterpart rejected
	CallDeclined CallStatus = "declined"
	// CallExpired nobody answered within the expiry window
	CallExpired CallStatus = "expired"
	// CallEnded an active call was hung up
	CallEnded CallStatus = "ended"
	// CallMissed administrative marking from the web application
	CallMissed CallStatus = "missed"
)

// Call one call-negotiation session between two room participants,
// independent of the chat message stream.
type Call struct {
	CallID      string     `bson:"call_id" json:"call_id"`
	RoomID      int64      `bson:"room_id" json:"room_id"`
	Initiator   string     `bson:"initiator" json:"initiator"`
	Participant string     `bson:"participant,omitempty" json:"participant,omitempty"`
	Status      CallStatus `bson:"status" json:"status"`
	SessionRoom string     `bson:"session_room,omitempty" json:"session_room,omitempty"`
	StartedAt   int64      `bson:"started_at" json:"started_at"`
	EndedAt     int64      `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSec int64      `bson:"duration_sec,omitempty" json:"duration_sec,omitempty"`
}

// callTransitions valid source state per target state.
var callTransitions = map[CallStatus]CallStatus{
	CallActive:   CallCalling,
	CallDeclined: CallCalling,
	CallExpired:  CallCalling,
	CallMissed:   CallCalling,
	CallEnded:    CallActive,
}

// TransitionFrom returns the only status a call may hold for the target
// transition to apply. Every store update is conditional on it.
func TransitionFrom(target CallStatus) (CallStatus, bool) {
	from, ok := callTransitions[target]
	return from, ok
}
