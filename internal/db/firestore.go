package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"sprintify-backend-go/internal/config"
)

// Clients bundles the Firebase Admin SDK clients the application uses.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	Messaging *messaging.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// InitFirebase initializes the Firebase Admin SDK and the Firestore, Auth and
// Messaging clients using credentials and project ID from appConfig.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Clients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.UseEmulator():
		// The SDKs pick the emulator hosts up from the environment.
		os.Setenv("FIRESTORE_EMULATOR_HOST", appConfig.FirestoreEmulatorHost)
		if appConfig.FirebaseAuthEmulatorHost != "" {
			os.Setenv("FIREBASE_AUTH_EMULATOR_HOST", appConfig.FirebaseAuthEmulatorHost)
		}
		logger.Info("Using Firebase emulators",
			zap.String("firestore", appConfig.FirestoreEmulatorHost),
			zap.String("auth", appConfig.FirebaseAuthEmulatorHost))
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist, relying on ADC",
				zap.String("path", appConfig.GoogleApplicationCredentials))
		} else {
			opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
		}
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FirebaseServiceAccountJSONBase64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decodedJSON))
	default:
		logger.Info("Initializing Firebase using Application Default Credentials (ADC).")
	}

	var firebaseAppConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		firebaseAppConfig = &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, firebaseAppConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("app.Messaging: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized", zap.String("projectID", appConfig.FirebaseProjectID))
	return &Clients{Firestore: fs, Auth: authClient, Messaging: msgClient}, nil
}
