package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/study-group-api/internal/auth"
	"github.com/yukikurage/study-group-api/internal/constants"
	"github.com/yukikurage/study-group-api/internal/middleware"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/repository"
	"github.com/yukikurage/study-group-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerEnv struct {
	db           *gorm.DB
	authService  *services.AuthService
	groupService *services.GroupService
	taskService  *services.TaskService
	auth         *AuthHandler
	groups       *GroupHandler
	tasks        *TaskHandler
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Task{},
	))

	groupRepo := repository.NewGroupRepository(db)
	authService := services.NewAuthService(
		repository.NewUserRepository(db),
		auth.NewTokenService("handler-test-secret", time.Hour),
		nil,
	)
	groupService := services.NewGroupService(groupRepo)
	taskService := services.NewTaskService(repository.NewTaskRepository(db), groupRepo)

	return &handlerEnv{
		db:           db,
		authService:  authService,
		groupService: groupService,
		taskService:  taskService,
		auth:         NewAuthHandler(authService),
		groups:       NewGroupHandler(groupService),
		tasks:        NewTaskHandler(taskService),
	}
}

func (e *handlerEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.authService.Register(context.Background(), services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

// asUser stands in for the bearer middleware.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(constants.ContextKeyUser, user)
			c.Set(constants.ContextKeyUserID, user.ID)
		}
		c.Next()
	}
}

// serve registers handler under pattern and performs a single request.
func serve(method, pattern, url string, body any, user *models.User, idParams []string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	chain := []gin.HandlerFunc{asUser(user)}
	if len(idParams) > 0 {
		chain = append(chain, middleware.RequireIDParams(idParams...))
	}
	chain = append(chain, handler)
	r.Handle(method, pattern, chain...)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
