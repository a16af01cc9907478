package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprintify-backend-go/internal/models"
)

const (
	tasksCollection      = "tasks"
	milestonesCollection = "milestones"
	batchDeleteSize      = 400
)

type firestoreTaskRepository struct {
	client *firestore.Client
}

func NewFirestoreTaskRepository(client *firestore.Client) TaskRepository {
	return &firestoreTaskRepository{client: client}
}

func (r *firestoreTaskRepository) Create(ctx context.Context, task *models.Task) (string, error) {
	docRef := r.client.Collection(tasksCollection).NewDoc()
	task.ID = docRef.ID
	if _, err := docRef.Create(ctx, task); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreTaskRepository) GetByID(ctx context.Context, taskID string) (*models.Task, error) {
	if taskID == "" {
		return nil, errors.New("taskID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(tasksCollection).Doc(taskID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("task with ID '%s' not found: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task with ID '%s': %w", taskID, err)
	}
	var task models.Task
	if err := snap.DataTo(&task); err != nil {
		return nil, fmt.Errorf("failed to decode task data for ID '%s': %w", taskID, err)
	}
	task.ID = snap.Ref.ID
	return &task, nil
}

func (r *firestoreTaskRepository) ListBySprint(ctx context.Context, sprintID string) ([]*models.Task, error) {
	query := r.client.Collection(tasksCollection).Where("sprintId", "==", sprintID).OrderBy("createdAt", firestore.Asc)
	return collect[models.Task](query.Documents(ctx), func(t *models.Task, id string) { t.ID = id })
}

func (r *firestoreTaskRepository) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	query := r.client.Collection(tasksCollection).Where("userId", "==", userID)
	return collect[models.Task](query.Documents(ctx), func(t *models.Task, id string) { t.ID = id })
}

func (r *firestoreTaskRepository) Update(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		return errors.New("task ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(tasksCollection).Doc(task.ID).Set(ctx, task); err != nil {
		return fmt.Errorf("failed to update task with ID '%s': %w", task.ID, err)
	}
	return nil
}

func (r *firestoreTaskRepository) Delete(ctx context.Context, taskID string) error {
	if _, err := r.client.Collection(tasksCollection).Doc(taskID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete task with ID '%s': %w", taskID, err)
	}
	return nil
}

func (r *firestoreTaskRepository) DeleteBySprint(ctx context.Context, sprintID string) error {
	return deleteWhere(ctx, r.client, tasksCollection, "sprintId", sprintID)
}

type firestoreMilestoneRepository struct {
	client *firestore.Client
}

func NewFirestoreMilestoneRepository(client *firestore.Client) MilestoneRepository {
	return &firestoreMilestoneRepository{client: client}
}

func (r *firestoreMilestoneRepository) Create(ctx context.Context, m *models.Milestone) (string, error) {
	docRef := r.client.Collection(milestonesCollection).NewDoc()
	m.ID = docRef.ID
	if _, err := docRef.Create(ctx, m); err != nil {
		return "", fmt.Errorf("failed to create milestone: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreMilestoneRepository) GetByID(ctx context.Context, milestoneID string) (*models.Milestone, error) {
	snap, err := r.client.Collection(milestonesCollection).Doc(milestoneID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("milestone with ID '%s' not found: %w", milestoneID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get milestone with ID '%s': %w", milestoneID, err)
	}
	var m models.Milestone
	if err := snap.DataTo(&m); err != nil {
		return nil, fmt.Errorf("failed to decode milestone data for ID '%s': %w", milestoneID, err)
	}
	m.ID = snap.Ref.ID
	return &m, nil
}

func (r *firestoreMilestoneRepository) ListBySprint(ctx context.Context, sprintID string) ([]*models.Milestone, error) {
	query := r.client.Collection(milestonesCollection).Where("sprintId", "==", sprintID).OrderBy("targetDate", firestore.Asc)
	return collect[models.Milestone](query.Documents(ctx), func(m *models.Milestone, id string) { m.ID = id })
}

func (r *firestoreMilestoneRepository) Update(ctx context.Context, m *models.Milestone) error {
	if m.ID == "" {
		return errors.New("milestone ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(milestonesCollection).Doc(m.ID).Set(ctx, m); err != nil {
		return fmt.Errorf("failed to update milestone with ID '%s': %w", m.ID, err)
	}
	return nil
}

func (r *firestoreMilestoneRepository) Delete(ctx context.Context, milestoneID string) error {
	if _, err := r.client.Collection(milestonesCollection).Doc(milestoneID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete milestone with ID '%s': %w", milestoneID, err)
	}
	return nil
}

func (r *firestoreMilestoneRepository) DeleteBySprint(ctx context.Context, sprintID string) error {
	return deleteWhere(ctx, r.client, milestonesCollection, "sprintId", sprintID)
}

// collect decodes every document of iter into a T, using setID to fill the document ID.
func collect[T any](iter *firestore.DocumentIterator, setID func(*T, string)) ([]*T, error) {
	defer iter.Stop()

	var out []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}
		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("failed to decode document '%s': %w", doc.Ref.ID, err)
		}
		setID(&item, doc.Ref.ID)
		out = append(out, &item)
	}
	return out, nil
}

// deleteWhere removes every document of collection whose field equals value, in bulk-writer batches.
func deleteWhere(ctx context.Context, client *firestore.Client, collection, field, value string) error {
	for {
		docs, err := client.Collection(collection).Where(field, "==", value).Limit(batchDeleteSize).Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("failed to query %s for deletion: %w", collection, err)
		}
		if len(docs) == 0 {
			return nil
		}
		bw := client.BulkWriter(ctx)
		for _, d := range docs {
			if _, err := bw.Delete(d.Ref); err != nil {
				bw.End()
				return fmt.Errorf("failed to enqueue delete of %s/%s: %w", collection, d.Ref.ID, err)
			}
		}
		bw.End()
		if len(docs) < batchDeleteSize {
			return nil
		}
	}
}
