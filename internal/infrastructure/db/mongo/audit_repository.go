package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

const auditCollection = "auth_audit"

// AuditRepository persists the authentication audit trail in MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"session_id"`
	Email     string `bson:"email,omitempty"`
	Action    string `bson:"action"`
	Reason    string `bson:"reason,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *AuditRepository) Record(ctx context.Context, event *domain.AuthEvent) error {
	doc := auditDoc{
		ID:        uuid.NewString(),
		SessionID: event.SessionID,
		Email:     event.Email,
		Action:    event.Action,
		Reason:    event.Reason,
		CreatedAt: event.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) Recent(ctx context.Context, limit int64) ([]domain.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuthEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuthEvent{
			ID:        d.ID,
			SessionID: d.SessionID,
			Email:     d.Email,
			Action:    d.Action,
			Reason:    d.Reason,
			CreatedAt: time.Unix(d.CreatedAt, 0).UTC(),
		})
	}
	return events, nil
}
