package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=4,max=200"`
}

type RegisterStudentRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=200"`
	Name     string `json:"name" validate:"omitempty,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	Username  string      `json:"username"`
	Name      string      `json:"name,omitempty"`
	StudentID uint        `json:"student_id,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// TokenClaims is the JWT payload for both roles. StudentID is zero for
// teachers, which share a single server-side credential.
type TokenClaims struct {
	Role      models.Role `json:"role"`
	Username  string      `json:"username"`
	StudentID uint        `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthService issues and validates bearer tokens
type AuthService interface {
	StudentLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	TeacherLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error)
	ParseToken(tokenString string) (*TokenClaims, error)
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	TeacherUsername string
	TeacherPassword string
}

type authService struct {
	students  repositories.StudentRepository
	cfg       AuthConfig
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAuthService(students repositories.StudentRepository, cfg AuthConfig, logger *slog.Logger, v *validator.Validator) AuthService {
	return &authService{
		students:  students,
		cfg:       cfg,
		logger:    logger,
		validator: v,
	}
}

func (s *authService) StudentLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	student, err := s.students.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student.Status != models.StudentActive {
		return nil, ErrStudentDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(models.RoleStudent, student.Username, student.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student logged in", "username", student.Username, "student_id", student.ID)

	return &LoginResponse{
		Token:     token,
		Role:      models.RoleStudent,
		Username:  student.Username,
		Name:      student.Name,
		StudentID: student.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// TeacherLogin checks the shared teacher credential held in server
// configuration. The credential never reaches any client bundle.
func (s *authService) TeacherLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.TeacherUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.TeacherPassword)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(models.RoleTeacher, req.Username, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Teacher logged in", "username", req.Username)

	return &LoginResponse{
		Token:     token,
		Role:      models.RoleTeacher,
		Username:  req.Username,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *authService) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.students.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	student := &models.Student{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Email:        req.Email,
		Status:       models.StudentActive,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("Student registered", "username", student.Username, "student_id", student.ID)
	return student, nil
}

func (s *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != models.RoleStudent && claims.Role != models.RoleTeacher {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issueToken(role models.Role, username string, studentID uint) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := TokenClaims{
		Role:      role,
		Username:  username,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "casesim-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
