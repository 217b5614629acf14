package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/workers"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/migrate"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/security"
)

const testPassword = "correct-horse-battery"

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      16,
	}
}

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	client := db.NewWithConn(conn)
	require.NoError(t, migrate.EnsureSchema(context.Background(), client, nil))

	svc, err := NewService(ServiceParams{
		Client:     client,
		WorkerRepo: workers.NewRepository(conn),
		AuthConfig: config.AuthConfig{
			MaxFailedLogins: 5,
			LockoutDuration: 30 * time.Minute,
			SessionTTL:      24 * time.Hour,
		},
		PWConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc, client
}

func seedWorker(t *testing.T, client *db.Client, email string, active bool) *models.Worker {
	t.Helper()
	hash, err := security.HashPassword(testPassword, testPasswordConfig())
	require.NoError(t, err)

	worker := &models.Worker{
		Name:         "Kevin Dutan",
		Email:        email,
		PasswordHash: hash,
		Role:         enums.WorkerRoleWorker,
		IsActive:     active,
	}
	require.NoError(t, client.DB().Create(worker).Error)
	return worker
}

func countAttempts(t *testing.T, client *db.Client, email string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, client.DB().Model(&models.LoginAttempt{}).Where("email = ?", email).Count(&count).Error)
	return count
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "kevin@francosphere.local", true)

	// pre-existing failures must be wiped by a success
	require.NoError(t, client.DB().Model(worker).Update("failed_login_attempts", 3).Error)

	result, err := svc.Authenticate(context.Background(), LoginInput{
		Email:    "Kevin@FrancoSphere.local",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.True(t, result.Authenticated())
	assert.Equal(t, worker.ID, result.Worker.ID)
	assert.NotNil(t, result.Worker.LastLoginAt)

	var reloaded models.Worker
	require.NoError(t, client.DB().First(&reloaded, "id = ?", worker.ID).Error)
	assert.Zero(t, reloaded.FailedLoginAttempts)
	assert.Nil(t, reloaded.LockedUntil)
	assert.NotNil(t, reloaded.LastLoginAt)

	assert.EqualValues(t, 1, countAttempts(t, client, "kevin@francosphere.local"))
}

func TestUnknownEmailRejectedWithGenericReason(t *testing.T) {
	svc, client := newTestService(t)

	result, err := svc.Authenticate(context.Background(), LoginInput{
		Email:    "nobody@francosphere.local",
		Password: "whatever",
	})
	require.NoError(t, err)
	assert.False(t, result.Authenticated())
	assert.Equal(t, ReasonInvalidCredentials, result.Reason)

	var attempt models.LoginAttempt
	require.NoError(t, client.DB().First(&attempt, "email = ?", "nobody@francosphere.local").Error)
	assert.Nil(t, attempt.WorkerID)
	assert.False(t, attempt.Success)
	require.NotNil(t, attempt.FailureReason)
	assert.Equal(t, auditUnknownEmail, *attempt.FailureReason)
}

func TestInactiveWorkerRejected(t *testing.T) {
	svc, client := newTestService(t)
	seedWorker(t, client, "gone@francosphere.local", false)

	result, err := svc.Authenticate(context.Background(), LoginInput{
		Email:    "gone@francosphere.local",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.False(t, result.Authenticated())
	assert.Equal(t, ReasonInvalidCredentials, result.Reason)
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "edwin@francosphere.local", true)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		result, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: "wrong"})
		require.NoError(t, err)
		assert.Equal(t, ReasonInvalidCredentials, result.Reason, "attempt %d", i+1)
	}

	// fifth failure trips the lock
	result, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, ReasonLocked, result.Reason)

	// the correct password is rejected without being checked while locked
	result, err = svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, ReasonLocked, result.Reason)

	// once the window elapses, the next attempt is treated as unlocked
	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, client.DB().Model(&models.Worker{}).
		Where("id = ?", worker.ID).
		Update("locked_until", expired).Error)

	result, err = svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: testPassword})
	require.NoError(t, err)
	assert.True(t, result.Authenticated())

	// one audit row per attempt: 5 failures + 1 locked rejection + 1 success
	assert.EqualValues(t, 7, countAttempts(t, client, worker.Email))
}

func TestConcurrentFailuresStillTripLock(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "angel@francosphere.local", true)
	ctx := context.Background()

	// parallel attempts must each land on the counter, not overwrite it
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: "wrong"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var reloaded models.Worker
	require.NoError(t, client.DB().First(&reloaded, "id = ?", worker.ID).Error)
	assert.Equal(t, 5, reloaded.FailedLoginAttempts)
	require.NotNil(t, reloaded.LockedUntil)
	assert.True(t, reloaded.IsLocked(time.Now().UTC()))

	result, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, ReasonLocked, result.Reason)
}

func TestExpiredLockFailureStartsFreshWindow(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "mercedes@francosphere.local", true)
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, client.DB().Model(&models.Worker{}).
		Where("id = ?", worker.ID).
		Updates(map[string]any{"failed_login_attempts": 5, "locked_until": expired}).Error)

	result, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidCredentials, result.Reason)

	var reloaded models.Worker
	require.NoError(t, client.DB().First(&reloaded, "id = ?", worker.ID).Error)
	assert.Equal(t, 1, reloaded.FailedLoginAttempts)
	assert.Nil(t, reloaded.LockedUntil)
}

func TestSessionLifecycle(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "luis@francosphere.local", true)
	ctx := context.Background()

	sessionID, err := svc.CreateSession(ctx, worker.ID, "iPhone 15 / 17.4")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	dto, err := svc.ValidateSession(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, dto)
	assert.Equal(t, worker.ID, dto.ID)

	// force expiry; validation must fail closed and deactivate lazily
	require.NoError(t, client.DB().Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	dto, err = svc.ValidateSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, dto)

	var session models.Session
	require.NoError(t, client.DB().First(&session, "id = ?", sessionID).Error)
	assert.False(t, session.IsActive)

	// idempotent: repeat validation behaves identically
	dto, err = svc.ValidateSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, dto)
}

func TestLogoutRevokesAllSessions(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "angel@francosphere.local", true)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, worker.ID, "iPad")
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, worker.ID, "iPhone")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, worker.ID))

	for _, id := range []string{first, second} {
		dto, err := svc.ValidateSession(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, dto)
	}
}

func TestValidateSessionDeactivatedWorkerFailsClosed(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "shawn@francosphere.local", true)
	ctx := context.Background()

	sessionID, err := svc.CreateSession(ctx, worker.ID, "web")
	require.NoError(t, err)

	require.NoError(t, client.DB().Model(&models.Worker{}).
		Where("id = ?", worker.ID).
		Update("is_active", false).Error)

	dto, err := svc.ValidateSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, dto)
}

func TestValidateUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	dto, err := svc.ValidateSession(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, dto)

	dto, err = svc.ValidateSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, dto)
}

func TestChangePassword(t *testing.T) {
	svc, client := newTestService(t)
	worker := seedWorker(t, client, "greg@francosphere.local", true)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, worker.ID, "not-the-password", "new-password-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, worker.ID, testPassword, "new-password-1"))

	result, err := svc.Authenticate(ctx, LoginInput{Email: worker.Email, Password: "new-password-1"})
	require.NoError(t, err)
	assert.True(t, result.Authenticated())
}
