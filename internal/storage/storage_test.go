package storage_test

import (
	"fmt"
	"testing"

	"lennonwall/backend/internal/engagement"
	"lennonwall/backend/internal/models"
	"lennonwall/backend/internal/moderation"
	"lennonwall/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory SQLite database. A single connection
// keeps every query on the same in-memory schema.
func setupTestDB(t *testing.T) *storage.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return storage.NewStorageService(db, nil)
}

func TestJournal_PersistsStoreMutations(t *testing.T) {
	// Arrange
	svc := setupTestDB(t)
	store := engagement.NewStore(engagement.WithJournal(svc))

	// Act
	m, err := store.Create(engagement.NewMessage{Content: "Hello", AuthorName: "Mi Mi"})
	require.NoError(t, err)
	_, err = store.ToggleLike(m.ID, "u1")
	require.NoError(t, err)
	_, err = store.ToggleLike(m.ID, "u2")
	require.NoError(t, err)
	_, err = store.ToggleLike(m.ID, "u1")
	require.NoError(t, err)
	require.NoError(t, store.IncrementView(m.ID))
	require.NoError(t, store.IncrementView(m.ID))
	require.NoError(t, store.Report(m.ID, models.ReasonOther, "u3", "off topic"))

	// Assert
	saved, err := svc.GetMessage(m.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Hello", saved.Content)
	require.NotNil(t, saved.AuthorName)
	assert.Equal(t, "Mi Mi", *saved.AuthorName)
	assert.Nil(t, saved.Location)
	assert.Equal(t, 1, saved.LikeCount)
	assert.Equal(t, 2, saved.ViewCount)
	assert.False(t, saved.Hidden)
	assert.Equal(t, m.Seq, saved.Seq)

	reports, err := svc.GetReportsForMessage(m.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReasonOther, reports[0].Reason)
	assert.Equal(t, "u3", reports[0].IdentityToken)
}

func TestJournal_HideIsPersisted(t *testing.T) {
	svc := setupTestDB(t)
	store := engagement.NewStore(engagement.WithJournal(svc))
	m, err := store.Create(engagement.NewMessage{Content: "abusive"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Report(m.ID, models.ReasonSpam, models.IdentityToken(fmt.Sprintf("u%d", i)), ""))
	}

	hidden, err := svc.GetHiddenMessages()
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Equal(t, m.ID, hidden[0].ID)
}

func TestLikeAdded_DuplicateRollsBack(t *testing.T) {
	// Arrange
	svc := setupTestDB(t)
	msg := models.Message{ID: "m1", Seq: 1, Content: "Hello"}
	require.NoError(t, svc.MessageCreated(msg))
	require.NoError(t, svc.LikeAdded(models.Like{MessageID: "m1", IdentityToken: "u1"}, 1))

	// Act
	err := svc.LikeAdded(models.Like{MessageID: "m1", IdentityToken: "u1"}, 2)

	// Assert
	assert.Error(t, err, "the unique index rejects a second like from the same identity")
	saved, err := svc.GetMessage("m1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.LikeCount, "the counter update is rolled back with the insert")
}

func TestLikeRemoved_DeletesRow(t *testing.T) {
	svc := setupTestDB(t)
	require.NoError(t, svc.MessageCreated(models.Message{ID: "m1", Seq: 1, Content: "Hello"}))
	require.NoError(t, svc.LikeAdded(models.Like{MessageID: "m1", IdentityToken: "u1"}, 1))

	require.NoError(t, svc.LikeRemoved(models.Like{MessageID: "m1", IdentityToken: "u1"}, 0))

	counts, err := svc.GetCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Likes)
	saved, _ := svc.GetMessage("m1")
	assert.Equal(t, 0, saved.LikeCount)
}

func TestGetMessage_Missing(t *testing.T) {
	svc := setupTestDB(t)

	m, err := svc.GetMessage("nope")

	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadAll_RestoresEquivalentStore(t *testing.T) {
	// Arrange
	svc := setupTestDB(t)
	original := engagement.NewStore(engagement.WithJournal(svc))
	var ids []string
	for i := 0; i < 4; i++ {
		m, err := original.Create(engagement.NewMessage{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	_, err := original.ToggleLike(ids[1], "u1")
	require.NoError(t, err)
	_, err = original.ToggleLike(ids[1], "u2")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, original.Report(ids[2], models.ReasonHarassment, "u1", ""))
	}

	// Act
	messages, likes, reports, err := svc.LoadAll()
	require.NoError(t, err)
	restored := engagement.NewStore()
	require.NoError(t, restored.Restore(messages, likes, reports))

	// Assert
	assert.Equal(t, original.Stats(), restored.Stats())
	want := original.ListVisible(engagement.NoLimit, 0)
	got := restored.ListVisible(engagement.NoLimit, 0)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].LikeCount, got[i].LikeCount)
	}
	assert.True(t, restored.HasLiked(ids[1], "u2"))
}

// restart rebuilds a store over the persisted rows with the given threshold.
func restart(t *testing.T, svc *storage.Service, threshold int) *engagement.Store {
	t.Helper()
	messages, likes, reports, err := svc.LoadAll()
	require.NoError(t, err)
	store := engagement.NewStore(
		engagement.WithJournal(svc),
		engagement.WithPolicy(moderation.NewPolicy(threshold)),
	)
	require.NoError(t, store.Restore(messages, likes, reports))
	return store
}

func TestRestore_PersistsHiddenAcrossThresholdChanges(t *testing.T) {
	// Arrange: three reports stay under a threshold of five.
	svc := setupTestDB(t)
	first := engagement.NewStore(
		engagement.WithJournal(svc),
		engagement.WithPolicy(moderation.NewPolicy(5)),
	)
	m, err := first.Create(engagement.NewMessage{Content: "borderline"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, first.Report(m.ID, models.ReasonSpam, models.IdentityToken(fmt.Sprintf("u%d", i)), ""))
	}
	require.Equal(t, 1, first.CountVisible())

	// Act: the threshold drops to three, then goes back up to five.
	lowered := restart(t, svc, 3)
	raised := restart(t, svc, 5)

	// Assert
	got, ok := lowered.Get(m.ID)
	require.True(t, ok)
	assert.True(t, got.Hidden)

	saved, err := svc.GetMessage(m.ID)
	require.NoError(t, err)
	assert.True(t, saved.Hidden, "the re-derived flag is written back")

	got, ok = raised.Get(m.ID)
	require.True(t, ok)
	assert.True(t, got.Hidden, "a hidden message never comes back")
	assert.Equal(t, 0, raised.CountVisible())

	hidden, err := svc.GetHiddenMessages()
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Equal(t, m.ID, hidden[0].ID)
}

func TestMessagesHidden_EmptyIsNoop(t *testing.T) {
	svc := setupTestDB(t)

	assert.NoError(t, svc.MessagesHidden(nil))
}

func TestGetCounts(t *testing.T) {
	svc := setupTestDB(t)
	store := engagement.NewStore(engagement.WithJournal(svc))
	a, _ := store.Create(engagement.NewMessage{Content: "a"})
	_, _ = store.Create(engagement.NewMessage{Content: "b"})
	_, _ = store.ToggleLike(a.ID, "u1")
	for i := 0; i < 3; i++ {
		_ = store.Report(a.ID, models.ReasonSpam, "u1", "")
	}

	counts, err := svc.GetCounts()

	require.NoError(t, err)
	assert.Equal(t, storage.Counts{Messages: 2, Hidden: 1, Likes: 1, Reports: 3}, *counts)
}
