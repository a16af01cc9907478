package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprintify-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document. The Firebase Auth UID is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(docSnap)
}

// profileUpdates lists the profile fields Update writes. Tokens are managed by
// AddFCMToken and RemoveFCMToken, and createdAt never changes.
func profileUpdates(user *models.User) []firestore.Update {
	return []firestore.Update{
		{Path: "email", Value: user.Email},
		{Path: "displayName", Value: user.DisplayName},
		{Path: "photoURL", Value: user.PhotoURL},
		{Path: "userType", Value: string(user.UserType)},
		{Path: "updatedAt", Value: user.UpdatedAt},
	}
}

// Update writes the profile fields of an existing user document.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Update(ctx, profileUpdates(user))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", user.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

func (r *firestoreUserRepository) List(ctx context.Context, userType models.UserType, limit int) ([]*models.User, error) {
	query := r.client.Collection(usersCollection).Query
	if userType != "" {
		query = query.Where("userType", "==", string(userType))
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// PromoteFirstAdmin checks for an existing admin and promotes userID inside one transaction.
func (r *firestoreUserRepository) PromoteFirstAdmin(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	ref := r.client.Collection(usersCollection).Doc(userID)
	adminQuery := r.client.Collection(usersCollection).Where("userType", "==", string(models.UserTypeAdmin)).Limit(1)

	var promoted *models.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		admins, err := tx.Documents(adminQuery).GetAll()
		if err != nil {
			return fmt.Errorf("failed to query admins: %w", err)
		}
		if len(admins) > 0 {
			return fmt.Errorf("an admin already exists: %w", ErrConflict)
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
			}
			return err
		}
		user, err := decodeUser(snap)
		if err != nil {
			return err
		}
		user.UserType = models.UserTypeAdmin
		user.UpdatedAt = now
		promoted = user
		return tx.Update(ref, []firestore.Update{
			{Path: "userType", Value: string(models.UserTypeAdmin)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func (r *firestoreUserRepository) AddFCMToken(ctx context.Context, userID, token string) error {
	return r.updateTokens(ctx, userID, firestore.ArrayUnion(token))
}

func (r *firestoreUserRepository) RemoveFCMToken(ctx context.Context, userID, token string) error {
	return r.updateTokens(ctx, userID, firestore.ArrayRemove(token))
}

func (r *firestoreUserRepository) updateTokens(ctx context.Context, userID string, value interface{}) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcmTokens", Value: value},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update FCM tokens for user '%s': %w", userID, err)
	}
	return nil
}

func decodeUser(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}
