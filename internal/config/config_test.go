package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMemoryDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 15*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "sprintify.notifications", cfg.NotificationQueue)
}

func TestLoadConfigFirestoreRequiresProject(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORAGE_DRIVER", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")
}

func TestValidateEmulatorSkipsCredentials(t *testing.T) {
	cfg := Config{
		StorageDriver:         StorageFirestore,
		FirebaseProjectID:     "demo-sprintify",
		FirestoreEmulatorHost: "localhost:8081",
		ReminderInterval:      time.Minute,
	}
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.UseEmulator())

	cfg.FirestoreEmulatorHost = ""
	assert.Error(t, cfg.Validate())

	cfg.StorageDriver = "mongo"
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigRejectsNonPositiveReminderInterval(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REMINDER_INTERVAL", "0s")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMINDER_INTERVAL")

	cfg := Config{StorageDriver: StorageMemory, ReminderInterval: -time.Second}
	assert.Error(t, cfg.Validate())
	cfg.ReminderInterval = time.Minute
	assert.NoError(t, cfg.Validate())
}
