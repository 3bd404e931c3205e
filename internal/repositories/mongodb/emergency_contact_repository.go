package mongodb

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type emergencyContactRepository struct {
	collection *mongo.Collection
}

func NewEmergencyContactRepository(db *mongo.Database) interfaces.EmergencyContactRepository {
	return &emergencyContactRepository{
		collection: db.Collection("emergency_contacts"),
	}
}

func (r *emergencyContactRepository) Create(ctx context.Context, contact *models.EmergencyContact) error {
	contact.ID = primitive.NewObjectID()
	contact.CreatedAt = time.Now().UTC()
	contact.UpdatedAt = contact.CreatedAt

	_, err := r.collection.InsertOne(ctx, contact)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create emergency contact: %w", err)
	}

	return nil
}

func (r *emergencyContactRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyContact, error) {
	var contact models.EmergencyContact
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&contact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get emergency contact: %w", err)
	}

	return &contact, nil
}

// Update applies a partial update. A nil value unsets the field entirely;
// the uniqueness indexes are partial on field existence, so cleared optional
// fields must not remain as empty strings.
func (r *emergencyContactRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	for field, value := range updates {
		if value == nil {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to update emergency contact: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *emergencyContactRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete emergency contact: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *emergencyContactRepository) GetByOwner(ctx context.Context, ownerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error) {
	filter := bson.M{"user_id": ownerID}
	return r.findPage(ctx, filter, params)
}

func (r *emergencyContactRepository) GetByOwnerAndStatus(ctx context.Context, ownerID primitive.ObjectID, status models.EmergencyContactStatus) ([]*models.EmergencyContact, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": ownerID, "status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*models.EmergencyContact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode emergency contacts: %w", err)
	}

	return contacts, nil
}

func (r *emergencyContactRepository) CountByOwnerAndStatus(ctx context.Context, ownerID primitive.ObjectID, status models.EmergencyContactStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": ownerID, "status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count emergency contacts: %w", err)
	}
	return count, nil
}

func (r *emergencyContactRepository) GetByContactUser(ctx context.Context, contactUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error) {
	filter := bson.M{"contact_user_id": contactUserID}
	return r.findPage(ctx, filter, params)
}

func (r *emergencyContactRepository) CountByContactUserAndStatus(ctx context.Context, contactUserID primitive.ObjectID, status models.EmergencyContactStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"contact_user_id": contactUserID, "status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count emergency contacts: %w", err)
	}
	return count, nil
}

func (r *emergencyContactRepository) ExistsByOwnerAndContactUser(ctx context.Context, ownerID, contactUserID primitive.ObjectID) (bool, error) {
	return r.exists(ctx, bson.M{"user_id": ownerID, "contact_user_id": contactUserID})
}

func (r *emergencyContactRepository) ExistsByOwnerAndEmail(ctx context.Context, ownerID primitive.ObjectID, email string) (bool, error) {
	return r.exists(ctx, bson.M{"user_id": ownerID, "email": email})
}

func (r *emergencyContactRepository) ExistsByOwnerAndPhone(ctx context.Context, ownerID primitive.ObjectID, phone string) (bool, error) {
	return r.exists(ctx, bson.M{"user_id": ownerID, "phone": phone})
}

// ActivateByToken atomically flips a matching pending contact to active. The
// filter carries the token, the pending status, and the freshness bound, so a
// token that already lost to decline or cleanup simply does not match.
func (r *emergencyContactRepository) ActivateByToken(ctx context.Context, token string, tokenCutoff time.Time) (*models.EmergencyContact, error) {
	now := time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"status":      models.ContactStatusActive,
			"accepted_at": now,
			"updated_at":  now,
		},
		"$unset": bson.M{
			"verification_token": "",
			"token_created_at":   "",
		},
	}

	return r.transitionByToken(ctx, token, tokenCutoff, update)
}

func (r *emergencyContactRepository) DeclineByToken(ctx context.Context, token string, tokenCutoff time.Time) (*models.EmergencyContact, error) {
	update := bson.M{
		"$set": bson.M{
			"status":     models.ContactStatusDeclined,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"verification_token": "",
			"token_created_at":   "",
		},
	}

	return r.transitionByToken(ctx, token, tokenCutoff, update)
}

func (r *emergencyContactRepository) transitionByToken(ctx context.Context, token string, tokenCutoff time.Time, update bson.M) (*models.EmergencyContact, error) {
	filter := bson.M{
		"verification_token": token,
		"status":             models.ContactStatusPending,
		"token_created_at":   bson.M{"$gt": tokenCutoff},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var contact models.EmergencyContact
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&contact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to transition emergency contact: %w", err)
	}

	return &contact, nil
}

func (r *emergencyContactRepository) ResetToken(ctx context.Context, id primitive.ObjectID, token string, createdAt time.Time) error {
	filter := bson.M{"_id": id, "status": models.ContactStatusPending}
	update := bson.M{
		"$set": bson.M{
			"verification_token": token,
			"token_created_at":   createdAt,
			"updated_at":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reset verification token: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *emergencyContactRepository) FindExpiredPending(ctx context.Context, tokenCutoff time.Time) ([]*models.EmergencyContact, error) {
	filter := bson.M{
		"status":           models.ContactStatusPending,
		"token_created_at": bson.M{"$lte": tokenCutoff},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*models.EmergencyContact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode expired contacts: %w", err)
	}

	return contacts, nil
}

func (r *emergencyContactRepository) MarkExpired(ctx context.Context, id primitive.ObjectID, tokenCutoff time.Time) (bool, error) {
	filter := bson.M{
		"_id":              id,
		"status":           models.ContactStatusPending,
		"token_created_at": bson.M{"$lte": tokenCutoff},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     models.ContactStatusExpired,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"verification_token": "",
			"token_created_at":   "",
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to expire emergency contact: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *emergencyContactRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergency contacts: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*models.EmergencyContact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode emergency contacts: %w", err)
	}

	return contacts, total, nil
}

func (r *emergencyContactRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check emergency contact existence: %w", err)
	}
	return count > 0, nil
}
