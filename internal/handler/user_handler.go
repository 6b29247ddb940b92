package handler

import (
	"context"
	"net/http"
	"strings"

	"studyboard/internal/model"
	"studyboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs bearer tokens for authenticated owners.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

// Bootstrapper gives a fresh account its default board.
type Bootstrapper interface {
	EnsureDefaultBoard(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error)
}

type UserHandler struct {
	repo   repository.UserRepositoryInterface
	tokens TokenIssuer
	boot   Bootstrapper
	log    logrus.FieldLogger
}

func NewUserHandler(repo repository.UserRepositoryInterface, tokens TokenIssuer, boot Bootstrapper, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens, boot: boot, log: log}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Register godoc
// @Summary      Create an account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user  body  RegisterRequest  true  "Account"
// @Success      201  {object}  AuthResponse
// @Failure      409  {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Name:           strings.TrimSpace(req.Name),
		HashedPassword: string(hash),
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	// A failed bootstrap is retried on the next board listing.
	if h.boot != nil {
		if _, err := h.boot.EnsureDefaultBoard(c.Request.Context(), user.ID); err != nil {
			h.log.WithError(err).WithField("user_id", user.ID).Warn("default board bootstrap failed")
		}
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login godoc
// @Summary      Sign in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  AuthResponse
// @Failure      401  {object}  map[string]string
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// Me godoc
// @Summary      Current account
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID.String(), Name: user.Name, Email: user.Email})
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, AuthResponse{
		Token: token,
		User:  UserResponse{ID: user.ID.String(), Name: user.Name, Email: user.Email},
	})
}
