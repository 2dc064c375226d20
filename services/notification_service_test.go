package services

import (
	"context"
	"sync"
	"testing"

	"puzzle-game-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePushClient records deliveries and fails tokens listed in dead.
type fakePushClient struct {
	mu   sync.Mutex
	sent []string // tokens delivered to
	dead map[string]bool
}

func (f *fakePushClient) Send(_ context.Context, token string, _ PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead[token] {
		return ErrUnregisteredToken
	}
	f.sent = append(f.sent, token)
	return nil
}

func TestCategoryAllowed(t *testing.T) {
	allOff := &models.NotificationPreferences{}

	assert.True(t, categoryAllowed(nil, CategoryCompetition))
	assert.False(t, categoryAllowed(allOff, CategoryGameReminder))
	assert.False(t, categoryAllowed(allOff, CategoryProgress))
	assert.False(t, categoryAllowed(allOff, CategoryCompetition))
	assert.False(t, categoryAllowed(allOff, CategoryInactivity))
	assert.False(t, categoryAllowed(allOff, CategoryNewContent))
	assert.True(t, categoryAllowed(allOff, CategoryBroadcast))
	assert.True(t, categoryAllowed(allOff, CategoryGeneral))
	assert.True(t, categoryAllowed(allOff, "something_new"))

	onlyCompetition := &models.NotificationPreferences{Competition: true}
	assert.True(t, categoryAllowed(onlyCompetition, CategoryCompetition))
	assert.False(t, categoryAllowed(onlyCompetition, CategoryProgress))
}

func TestSendToUserDeliversToEachDevice(t *testing.T) {
	db := testDB(t)
	push := &fakePushClient{}
	svc := NewNotificationService(db, push)
	uid := "user-" + uuid.NewString()

	require.NoError(t, svc.RegisterToken(context.Background(), uid, "tok-a-"+uid, "ios", "en"))
	require.NoError(t, svc.RegisterToken(context.Background(), uid, "tok-b-"+uid, "android", "de"))

	sent, err := svc.SendToUser(context.Background(), uid, "Title", "Body", nil, CategoryProgress)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, push.sent, 2)

	logs, err := svc.RecentLog(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "sent", logs[0].Status)
	assert.Equal(t, uid, logs[0].UID)
}

func TestSendToUserRespectsPreferences(t *testing.T) {
	db := testDB(t)
	push := &fakePushClient{}
	svc := NewNotificationService(db, push)
	uid := "user-" + uuid.NewString()

	require.NoError(t, svc.RegisterToken(context.Background(), uid, "tok-"+uid, "ios", "en"))
	require.NoError(t, svc.SavePreferences(context.Background(), &models.NotificationPreferences{
		UID: uid, Competition: false,
		GameReminders: true, ProgressUpdates: true, Inactivity: true, NewContent: true,
	}))

	sent, err := svc.SendToUser(context.Background(), uid, "Title", "Body", nil, CategoryCompetition)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, push.sent)

	// broadcast bypasses the gate
	sent, err = svc.SendToUser(context.Background(), uid, "Title", "Body", nil, CategoryBroadcast)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestSendToUserPrunesDeadTokens(t *testing.T) {
	db := testDB(t)
	uid := "user-" + uuid.NewString()
	deadToken := "tok-dead-" + uid
	push := &fakePushClient{dead: map[string]bool{deadToken: true}}
	svc := NewNotificationService(db, push)

	require.NoError(t, svc.RegisterToken(context.Background(), uid, deadToken, "ios", "en"))
	require.NoError(t, svc.RegisterToken(context.Background(), uid, "tok-live-"+uid, "android", "en"))

	sent, err := svc.SendToUser(context.Background(), uid, "Title", "Body", nil, CategoryGeneral)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var remaining []models.FCMToken
	require.NoError(t, db.Where("uid = ?", uid).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "tok-live-"+uid, remaining[0].Token)
}

func TestRegisterTokenRebindsToNewUser(t *testing.T) {
	db := testDB(t)
	svc := NewNotificationService(db, &fakePushClient{})
	token := "tok-" + uuid.NewString()

	require.NoError(t, svc.RegisterToken(context.Background(), "user-old", token, "ios", "en"))
	require.NoError(t, svc.RegisterToken(context.Background(), "user-new", token, "ios", "en"))

	var rows []models.FCMToken
	require.NoError(t, db.Where("token = ?", token).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "user-new", rows[0].UID)
}

func TestGetPreferencesDefaults(t *testing.T) {
	db := testDB(t)
	svc := NewNotificationService(db, &fakePushClient{})

	prefs, err := svc.GetPreferences(context.Background(), "user-"+uuid.NewString())
	require.NoError(t, err)
	assert.True(t, prefs.GameReminders)
	assert.True(t, prefs.ProgressUpdates)
	assert.True(t, prefs.Competition)
	assert.True(t, prefs.Inactivity)
	assert.True(t, prefs.NewContent)
}
