package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/travel-agency/internal/domain"
	"github.com/robertarktes/travel-agency/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Action    string    `bson:"action"`
	UserID    int64     `bson:"user_id"`
	PackageID int64     `bson:"package_id"`
	BookingID int64     `bson:"booking_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

// EnsureIndexes creates the lookup indexes used by back-office queries.
func (a *AuditLogger) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
		{Keys: bson.D{{Key: "package_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

// LogEvent stores one audit entry. id makes redelivered messages a no-op.
func (a *AuditLogger) LogEvent(ctx context.Context, id, action string, userID, packageID, bookingID int64, data map[string]interface{}) error {
	if id == "" {
		id = uuid.NewString()
	}
	// _id comes from the filter on insert
	log := AuditLog{
		Action:    action,
		UserID:    userID,
		PackageID: packageID,
		BookingID: bookingID,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	_, err := a.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": log},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		a.logger.WithError(err).WithField("action", action).Error("failed to insert audit log")
		return err
	}
	return nil
}

func (a *AuditLogger) LogBooking(ctx context.Context, id, action string, ev domain.BookingEvent) error {
	data := map[string]interface{}{
		"date":         ev.Date.String(),
		"total_people": ev.TotalPeople,
		"slot_after":   ev.SlotAfter,
		"occurred_at":  ev.OccurredAt.Format(time.RFC3339),
	}
	return a.LogEvent(ctx, id, action, ev.UserID, ev.PackageID, ev.BookingID, data)
}

// ByBooking returns the audit trail of one booking, oldest first.
func (a *AuditLogger) ByBooking(ctx context.Context, bookingID int64) ([]AuditLog, error) {
	cur, err := a.coll.Find(ctx, bson.M{"booking_id": bookingID}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
