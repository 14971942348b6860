package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/loaneye/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func newTestService(t *testing.T) *Service {
	return NewService(setupTestDB(t), "test-secret", time.Hour, zaptest.NewLogger(t))
}

func TestService_SeedAndLogin(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.SeedAdmin("admin", "admin123"))
	require.NoError(t, s.SeedAdmin("admin", "other"), "seeding twice keeps the first account")

	token, user, err := s.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Username)

	_, _, err = s.Login("admin", "other")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, _, err = s.Login("nobody", "admin123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestService_InactiveUser(t *testing.T) {
	s := newTestService(t)

	u, err := s.CreateUser("viewer", "pw", models.RoleViewer)
	require.NoError(t, err)
	require.NoError(t, s.db.Model(u).Update("is_active", false).Error)

	_, _, err = s.Login("viewer", "pw")
	assert.ErrorIs(t, err, models.ErrUserInactive)
}

func TestService_ParseTokenRejects(t *testing.T) {
	s := newTestService(t)
	u := &models.User{Username: "a", Role: models.RoleViewer}
	u.ID = 1

	other := NewService(s.db, "another-secret", time.Hour, zaptest.NewLogger(t))
	token, err := other.GenerateToken(u)
	require.NoError(t, err)
	_, err = s.ParseToken(token)
	assert.Error(t, err)

	expired := NewService(s.db, "test-secret", -time.Minute, zaptest.NewLogger(t))
	token, err = expired.GenerateToken(u)
	require.NoError(t, err)
	_, err = s.ParseToken(token)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ParseToken(unsigned)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestService(t)

	viewer, err := s.CreateUser("viewer", "pw", models.RoleViewer)
	require.NoError(t, err)
	analyst, err := s.CreateUser("analyst", "pw", models.RoleAnalyst)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/", s.Middleware())
	api.GET("/alerts", RequirePermission(models.PermViewAlerts), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUsername))
	})
	api.POST("/sessions", RequirePermission(models.PermComposeRules), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	api.DELETE("/rules/1", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(method, path string, user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if user != nil {
			token, err := s.GenerateToken(user)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/alerts", nil).Code)

	w := do(http.MethodGet, "/alerts", viewer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "viewer", w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, "/sessions", viewer).Code)
	assert.Equal(t, http.StatusCreated, do(http.MethodPost, "/sessions", analyst).Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodDelete, "/rules/1", analyst).Code)

	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
