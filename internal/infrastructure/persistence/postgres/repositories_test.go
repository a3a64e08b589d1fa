package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

// openTestDB backs the repositories with a file-based SQLite database; the
// gorm layer is the same one the PostgreSQL pool rides on.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sfauth_test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LoginSession{},
		&models.LoginHistory{},
		&models.Token{},
		&models.TokenBinding{},
	))
	return db
}

func sampleResult() *models.LoginResult {
	return &models.LoginResult{
		Success:        true,
		LoginType:      constants.LoginTypeOAuth2,
		OrgType:        constants.OrgEnvironmentProduction,
		SessionID:      "00Dsession!abc",
		AccessToken:    "00Dsession!abc",
		InstanceURL:    "https://inst.example.com",
		UserID:         "005123",
		OrganizationID: "00D123",
		ExpiresIn:      3600,
	}
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	session := models.NewLoginSession(sampleResult(), "u@x.com", "203.0.113.9", "Desktop/Windows", "Chrome")
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "u@x.com", loaded.Username)
	assert.Equal(t, constants.SessionStatusActive, loaded.Status)
	assert.Equal(t, "https://inst.example.com", loaded.InstanceURL)
	require.NotNil(t, loaded.ExpireTime)
}

func TestSessionRepository_FindMissingReturnsNil(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t), logger.NewNopLogger())

	loaded, err := repo.FindBySessionID(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionRepository_UpdatePersistsStatus(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	session := models.NewLoginSession(sampleResult(), "u@x.com", "", "", "")
	require.NoError(t, repo.Save(ctx, session))

	session.MarkInactive(time.Now().UTC())
	require.NoError(t, repo.Update(ctx, session))

	loaded, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, constants.SessionStatusInactive, loaded.Status)
}

func TestSessionRepository_FindActiveByUsername(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	first := models.NewLoginSession(sampleResult(), "u@x.com", "", "", "")
	require.NoError(t, repo.Save(ctx, first))

	second := sampleResult()
	second.SessionID = "00Dsession!def"
	inactive := models.NewLoginSession(second, "u@x.com", "", "", "")
	inactive.Status = constants.SessionStatusInactive
	require.NoError(t, repo.Save(ctx, inactive))

	sessions, err := repo.FindActiveByUsername(ctx, "u@x.com")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, first.SessionID, sessions[0].SessionID)
}

func TestHistoryRepository_SaveAndFind(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	history := models.NewLoginHistory(&models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
	}, time.Now().UTC())
	history.EncryptedPassword = "ciphertext"
	history.EncryptedSessionID = "sessionciphertext"
	history.Complete(sampleResult(), time.Now().UTC())
	require.NoError(t, repo.Save(ctx, history))

	loaded, err := repo.FindByID(ctx, history.HistoryID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, constants.LoginStatusSuccess, loaded.LoginStatus)
	assert.Equal(t, "ciphertext", loaded.EncryptedPassword)
	assert.Equal(t, "sessionciphertext", loaded.EncryptedSessionID)
	assert.Equal(t, "00Dsession!abc", loaded.ResultSessionID)
	assert.Equal(t, int64(3600), loaded.ExpiresIn)
	assert.True(t, loaded.Succeeded())

	missing, err := repo.FindByID(ctx, "never-saved")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		history := models.NewLoginHistory(&models.LoginRequest{
			LoginType: constants.LoginTypeOAuth2,
			Username:  "u@x.com",
		}, base.Add(time.Duration(i)*time.Second))
		history.Complete(sampleResult(), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Save(ctx, history))
	}
	failed := models.NewLoginHistory(&models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		Username:  "other@x.com",
	}, base)
	failed.Complete(models.NewFailedResult(constants.ErrCodeOAuth2LoginFailed, "nope"), base)
	require.NoError(t, repo.Save(ctx, failed))

	rows, total, err := repo.List(ctx, repository.HistoryFilter{Username: "u@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	// Newest first.
	assert.True(t, !rows[0].RequestTime.Before(rows[1].RequestTime))

	rows, total, err = repo.List(ctx, repository.HistoryFilter{Username: "u@x.com", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)

	rows, total, err = repo.List(ctx, repository.HistoryFilter{LoginStatus: constants.LoginStatusFailed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "other@x.com", rows[0].Username)
}

func TestTokenRepository_RoundTripAndUpdate(t *testing.T) {
	repo := NewTokenRepository(openTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	token := models.NewToken("access-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Save(ctx, token))

	loaded, err := repo.FindByAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, constants.TokenStatusActive, loaded.Status)

	token.MarkRevoked(time.Now().UTC())
	require.NoError(t, repo.Update(ctx, token))

	loaded, err = repo.FindByAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, constants.TokenStatusRevoked, loaded.Status)

	missing, err := repo.FindByAccessToken(ctx, "never-issued")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenBindingRepository_CascadeUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewTokenBindingRepository(db, logger.NewNopLogger())
	ctx := context.Background()

	token := models.NewToken("access-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Save(ctx, models.NewTokenBinding(token, "device-a", "")))
	require.NoError(t, repo.Save(ctx, models.NewTokenBinding(token, "", "10.0.0.1")))

	other := models.NewToken("access-2", time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Save(ctx, models.NewTokenBinding(other, "device-b", "")))

	affected, err := repo.UpdateStatusByTokenID(ctx, token.TokenID, string(constants.BindingStatusRevoked))
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	bindings, err := repo.FindByTokenID(ctx, token.TokenID)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	for _, b := range bindings {
		assert.Equal(t, constants.BindingStatusRevoked, b.Status)
	}

	untouched, err := repo.FindByTokenID(ctx, other.TokenID)
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, constants.BindingStatusActive, untouched[0].Status)
}
