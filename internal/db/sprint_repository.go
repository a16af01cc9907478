package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprintify-backend-go/internal/models"
)

const sprintsCollection = "sprints"

// firestoreSprintRepository implements the SprintRepository interface using Firestore.
type firestoreSprintRepository struct {
	client *firestore.Client
}

// NewFirestoreSprintRepository creates a new instance of firestoreSprintRepository.
func NewFirestoreSprintRepository(client *firestore.Client) SprintRepository {
	return &firestoreSprintRepository{client: client}
}

// Create adds a new sprint document with an auto-generated ID at version 1.
func (r *firestoreSprintRepository) Create(ctx context.Context, sprint *models.Sprint) (string, error) {
	docRef := r.client.Collection(sprintsCollection).NewDoc()
	sprint.ID = docRef.ID
	sprint.Version = 1

	if _, err := docRef.Create(ctx, sprint); err != nil {
		return "", fmt.Errorf("failed to create sprint: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a sprint document by its ID.
func (r *firestoreSprintRepository) GetByID(ctx context.Context, sprintID string) (*models.Sprint, error) {
	if sprintID == "" {
		return nil, errors.New("sprintID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(sprintsCollection).Doc(sprintID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("sprint with ID '%s' not found: %w", sprintID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sprint with ID '%s': %w", sprintID, err)
	}
	return decodeSprint(docSnap)
}

// ListByUser returns the user's sprints, newest first, narrowed by filter.
func (r *firestoreSprintRepository) ListByUser(ctx context.Context, userID string, filter models.SprintFilter) ([]*models.Sprint, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUser operation")
	}

	query := r.client.Collection(sprintsCollection).Where("userId", "==", userID)
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type", "==", string(filter.Type))
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return collectSprints(query.Documents(ctx))
}

// ListByStatus returns every sprint in the given status, across users.
func (r *firestoreSprintRepository) ListByStatus(ctx context.Context, st models.SprintStatus) ([]*models.Sprint, error) {
	query := r.client.Collection(sprintsCollection).Where("status", "==", string(st))
	return collectSprints(query.Documents(ctx))
}

func (r *firestoreSprintRepository) CountByUserAndStatus(ctx context.Context, userID string, st models.SprintStatus) (int, error) {
	query := r.client.Collection(sprintsCollection).
		Where("userId", "==", userID).
		Where("status", "==", string(st))

	results, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count sprints for user '%s': %w", userID, err)
	}
	count, ok := results["all"]
	if !ok {
		return 0, fmt.Errorf("aggregation count 'all' not found in results for user '%s'", userID)
	}
	switch v := count.(type) {
	case *firestorepb.Value:
		return int(v.GetIntegerValue()), nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected type %T for aggregation count", count)
	}
}

// Update writes the sprint inside a transaction that first compares versions.
func (r *firestoreSprintRepository) Update(ctx context.Context, sprint *models.Sprint, expectedVersion int64) error {
	if sprint.ID == "" {
		return errors.New("sprint ID cannot be empty for Update operation")
	}
	ref := r.client.Collection(sprintsCollection).Doc(sprint.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("sprint with ID '%s' not found: %w", sprint.ID, ErrNotFound)
			}
			return err
		}
		current, err := snap.DataAt("version")
		if err != nil {
			return fmt.Errorf("failed to read version of sprint '%s': %w", sprint.ID, err)
		}
		if v, _ := current.(int64); v != expectedVersion {
			return fmt.Errorf("sprint '%s' is at version %d, expected %d: %w", sprint.ID, v, expectedVersion, ErrVersionConflict)
		}
		next := *sprint
		next.Version = expectedVersion + 1
		return tx.Set(ref, &next)
	})
	if err != nil {
		return fmt.Errorf("failed to update sprint with ID '%s': %w", sprint.ID, err)
	}
	sprint.Version = expectedVersion + 1
	return nil
}

// Delete removes a sprint document. Tasks and milestones are removed by the service.
func (r *firestoreSprintRepository) Delete(ctx context.Context, sprintID string) error {
	if sprintID == "" {
		return errors.New("sprintID cannot be empty for Delete operation")
	}
	if _, err := r.client.Collection(sprintsCollection).Doc(sprintID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete sprint with ID '%s': %w", sprintID, err)
	}
	return nil
}

func collectSprints(iter *firestore.DocumentIterator) ([]*models.Sprint, error) {
	defer iter.Stop()

	var sprints []*models.Sprint
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sprints: %w", err)
		}
		sprint, err := decodeSprint(doc)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, sprint)
	}
	return sprints, nil
}

func decodeSprint(doc *firestore.DocumentSnapshot) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := doc.DataTo(&sprint); err != nil {
		return nil, fmt.Errorf("failed to decode sprint data for ID '%s': %w", doc.Ref.ID, err)
	}
	sprint.ID = doc.Ref.ID
	return &sprint, nil
}
