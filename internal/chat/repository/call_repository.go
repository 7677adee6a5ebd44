package repository

import (
	"context"
	"time"

	"recruitment_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CallRepository definition call signaling store. Every transition is
// conditional on the call still holding the expected source status; the
// returned bool reports whether the transition actually applied, which is
// what the signaling use case uses for race arbitration.
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	FindByCallID(ctx context.Context, callID string) (*domain.Call, error)
	Accept(ctx context.Context, callID, participant, sessionRoom string) (bool, error)
	Decline(ctx context.Context, callID, participant string) (bool, error)
	Expire(ctx context.Context, callID string) (bool, error)
	End(ctx context.Context, callID string, at time.Time) (bool, error)
	Missed(ctx context.Context, callID string) (bool, error)
}

type callRepository struct {
	coll *mongo.Collection
}

// NewMongoCallRepository create a CallRepository
func NewMongoCallRepository(db *mongo.Database) CallRepository {
	return &callRepository{
		coll: db.Collection("chat_calls"),
	}
}

func (r *callRepository) Create(ctx context.Context, call *domain.Call) error {
	_, err := r.coll.InsertOne(ctx, call)
	return err
}

func (r *callRepository) FindByCallID(ctx context.Context, callID string) (*domain.Call, error) {
	var call domain.Call
	err := r.coll.FindOne(ctx, bson.M{"call_id": callID}).Decode(&call)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// transition applies a compare-and-set status update: the filter only matches
// while the call still holds the source status, so of two racing transitions
// exactly one observes ModifiedCount == 1.
func (r *callRepository) transition(ctx context.Context, callID string, to domain.CallStatus, set bson.M) (bool, error) {
	from, ok := domain.TransitionFrom(to)
	if !ok {
		return false, nil
	}
	set["status"] = to
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"call_id": callID, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *callRepository) Accept(ctx context.Context, callID, participant, sessionRoom string) (bool, error) {
	return r.transition(ctx, callID, domain.CallActive, bson.M{
		"participant":  participant,
		"session_room": sessionRoom,
	})
}

func (r *callRepository) Decline(ctx context.Context, callID, participant string) (bool, error) {
	return r.transition(ctx, callID, domain.CallDeclined, bson.M{
		"participant": participant,
		"ended_at":    time.Now().Unix(),
	})
}

func (r *callRepository) Expire(ctx context.Context, callID string) (bool, error) {
	return r.transition(ctx, callID, domain.CallExpired, bson.M{
		"ended_at": time.Now().Unix(),
	})
}

func (r *callRepository) End(ctx context.Context, callID string, at time.Time) (bool, error) {
	call, err := r.FindByCallID(ctx, callID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	duration := at.Unix() - call.StartedAt
	if duration < 0 {
		duration = 0
	}
	return r.transition(ctx, callID, domain.CallEnded, bson.M{
		"ended_at":     at.Unix(),
		"duration_sec": duration,
	})
}

func (r *callRepository) Missed(ctx context.Context, callID string) (bool, error) {
	return r.transition(ctx, callID, domain.CallMissed, bson.M{
		"ended_at": time.Now().Unix(),
	})
}
