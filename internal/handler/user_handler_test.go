package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyboard/internal/auth"
	"studyboard/internal/handler"
	"studyboard/internal/logger"
	"studyboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

type MockBootstrapper struct {
	mock.Mock
}

func (m *MockBootstrapper) EnsureDefaultBoard(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func setupUserTest() (*gin.Engine, *MockUserRepository, *MockBootstrapper, *auth.Manager) {
	r := gin.New()
	mockRepo := new(MockUserRepository)
	mockBoot := new(MockBootstrapper)
	tokens := auth.NewManager("test-secret", time.Hour)
	userHandler := handler.NewUserHandler(mockRepo, tokens, mockBoot, logger.Discard())

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	return r, mockRepo, mockBoot, tokens
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	router, mockRepo, mockBoot, tokens := setupUserTest()

	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	mockBoot.On("EnsureDefaultBoard", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(uuid.New(), nil)

	reqBody := handler.RegisterRequest{
		Name:     "Test User",
		Email:    "Test@Example.com",
		Password: "password123",
	}
	resp := postJSON(t, router, "/register", reqBody)

	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, reqBody.Name, response.User.Name)
	assert.Equal(t, "test@example.com", response.User.Email)

	// Токен указывает на созданного пользователя
	userID, err := tokens.ParseToken(response.Token)
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, userID.String())

	mockRepo.AssertExpectations(t)
	mockBoot.AssertExpectations(t)
}

func TestRegister_BootstrapFailureStillRegisters(t *testing.T) {
	router, mockRepo, mockBoot, _ := setupUserTest()

	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	mockBoot.On("EnsureDefaultBoard", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(uuid.Nil, errors.New("store offline"))

	resp := postJSON(t, router, "/register", handler.RegisterRequest{
		Name: "Test User", Email: "test@example.com", Password: "password123",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	router, mockRepo, mockBoot, _ := setupUserTest()

	// Пользователь уже существует
	existingUser := &model.User{
		ID:             uuid.New(),
		Email:          "existing@example.com",
		HashedPassword: "hashed_password",
		Name:           "Existing User",
	}
	mockRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(existingUser, nil)

	resp := postJSON(t, router, "/register", handler.RegisterRequest{
		Name:     "Test User",
		Email:    "existing@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "User with this email already exists", response["error"])

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockBoot.AssertNotCalled(t, "EnsureDefaultBoard", mock.Anything, mock.Anything)
}

func TestRegister_InvalidInput(t *testing.T) {
	router, mockRepo, _, _ := setupUserTest()

	resp := postJSON(t, router, "/register", map[string]string{
		"name": "Test User", "email": "not-an-email", "password": "password123",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "email must be a valid email address", response["error"])
	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	router, mockRepo, _, _ := setupUserTest()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Name:           "Test User",
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	resp := postJSON(t, router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, testUser.Name, response.User.Name)
	assert.Equal(t, testUser.Email, response.User.Email)
	assert.Equal(t, testUser.ID.String(), response.User.ID)

	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router, mockRepo, _, _ := setupUserTest()

	// Неверный пароль
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Name:           "Test User",
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	resp := postJSON(t, router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong_password",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestLogin_UserNotFound(t *testing.T) {
	router, mockRepo, _, _ := setupUserTest()

	mockRepo.On("FindByEmail", mock.Anything, "nonexistent@example.com").Return(nil, nil)

	resp := postJSON(t, router, "/login", handler.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}
