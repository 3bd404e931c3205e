package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type AuthClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*models.Caller, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type authService struct {
	userRepo  interfaces.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *logger.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("%s", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    models.UserStatusActive,
		Roles:     []string{models.RoleUser},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, validationError("%s", utils.ErrUserExists)
		}
		return nil, err
	}

	s.logger.WithUserID(user.ID).Info("User registered")

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("%s", err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Status != models.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.WithUserID(user.ID).Info("User logged in")

	return s.issueToken(user)
}

func (s *authService) ValidateToken(tokenString string) (*models.Caller, error) {
	claims := &AuthClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Caller{
		UserID: userID,
		Roles:  claims.Roles,
	}, nil
}

func (s *authService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *authService) issueToken(user *models.User) (*AuthResponse, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)

	claims := &AuthClaims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}
