package db

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprintify-backend-go/internal/models"
)

const (
	upgradeRequestsCollection = "upgradeRequests"
	auditLogsCollection       = "auditLogs"
)

type firestoreUpgradeRequestRepository struct {
	client *firestore.Client
}

func NewFirestoreUpgradeRequestRepository(client *firestore.Client) UpgradeRequestRepository {
	return &firestoreUpgradeRequestRepository{client: client}
}

// CreatePending checks for an open request and creates the new one in the same transaction.
func (r *firestoreUpgradeRequestRepository) CreatePending(ctx context.Context, req *models.UpgradeRequest) (string, error) {
	col := r.client.Collection(upgradeRequestsCollection)
	pending := col.Where("userId", "==", req.UserID).Where("status", "==", string(models.UpgradeStatusPending)).Limit(1)
	docRef := col.NewDoc()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(pending).GetAll()
		if err != nil {
			return fmt.Errorf("failed to query pending requests: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("user '%s' already has a pending request: %w", req.UserID, ErrConflict)
		}
		return tx.Create(docRef, req)
	})
	if err != nil {
		return "", err
	}
	req.ID = docRef.ID
	return docRef.ID, nil
}

func (r *firestoreUpgradeRequestRepository) GetByID(ctx context.Context, requestID string) (*models.UpgradeRequest, error) {
	snap, err := r.client.Collection(upgradeRequestsCollection).Doc(requestID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upgrade request '%s': %w", requestID, err)
	}
	return decodeUpgradeRequest(snap)
}

func (r *firestoreUpgradeRequestRepository) List(ctx context.Context, st models.UpgradeStatus) ([]*models.UpgradeRequest, error) {
	query := r.client.Collection(upgradeRequestsCollection).Query
	if st != "" {
		query = query.Where("status", "==", string(st))
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	return collect[models.UpgradeRequest](query.Documents(ctx), func(u *models.UpgradeRequest, id string) { u.ID = id })
}

// LatestByUser avoids a composite index by sorting the user's few requests in memory.
func (r *firestoreUpgradeRequestRepository) LatestByUser(ctx context.Context, userID string) (*models.UpgradeRequest, error) {
	query := r.client.Collection(upgradeRequestsCollection).Where("userId", "==", userID)
	reqs, err := collect[models.UpgradeRequest](query.Documents(ctx), func(u *models.UpgradeRequest, id string) { u.ID = id })
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no upgrade request for user '%s': %w", userID, ErrNotFound)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs[0], nil
}

func (r *firestoreUpgradeRequestRepository) Review(ctx context.Context, requestID string, review UpgradeReview) (*models.UpgradeRequest, error) {
	ref := r.client.Collection(upgradeRequestsCollection).Doc(requestID)

	var reviewed *models.UpgradeRequest
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
			}
			return err
		}
		req, err := decodeUpgradeRequest(snap)
		if err != nil {
			return err
		}
		if req.Status != models.UpgradeStatusPending {
			return fmt.Errorf("upgrade request '%s' is already %s: %w", requestID, req.Status, ErrConflict)
		}

		var userRef *firestore.DocumentRef
		if review.Status == models.UpgradeStatusApproved {
			userRef = r.client.Collection(usersCollection).Doc(req.UserID)
			if _, err := tx.Get(userRef); err != nil {
				if status.Code(err) == codes.NotFound {
					return fmt.Errorf("requesting user '%s' not found: %w", req.UserID, ErrNotFound)
				}
				return err
			}
		}

		reviewedAt := review.ReviewedAt
		req.Status = review.Status
		req.AdminComment = review.AdminComment
		req.ReviewedBy = review.ReviewedBy
		req.ReviewedAt = &reviewedAt
		if err := tx.Set(ref, req); err != nil {
			return err
		}
		if userRef != nil {
			if err := tx.Update(userRef, []firestore.Update{
				{Path: "userType", Value: string(req.RequestedType)},
				{Path: "updatedAt", Value: reviewedAt},
			}); err != nil {
				return err
			}
		}
		reviewed = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

func (r *firestoreUpgradeRequestRepository) Delete(ctx context.Context, requestID string) error {
	if _, err := r.client.Collection(upgradeRequestsCollection).Doc(requestID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete upgrade request '%s': %w", requestID, err)
	}
	return nil
}

func decodeUpgradeRequest(doc *firestore.DocumentSnapshot) (*models.UpgradeRequest, error) {
	var req models.UpgradeRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to decode upgrade request '%s': %w", doc.Ref.ID, err)
	}
	req.ID = doc.Ref.ID
	return &req, nil
}

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an append-only audit log store.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	return &firestoreAuditRepository{client: client}
}

func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to write audit log %s: %w", logEntry.Action, err)
	}
	return nil
}
