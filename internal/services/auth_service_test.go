package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// MockStudentRepository is a mock implementation of StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) GetByUsername(ctx context.Context, username string) (*models.Student, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) Update(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func testAuthConfig(ttl time.Duration) AuthConfig {
	return AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTL:        ttl,
		TeacherUsername: "academicxs",
		TeacherPassword: "simulador",
	}
}

func activeStudent(t *testing.T, username, password string) *models.Student {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Student{
		ID:           42,
		Username:     username,
		PasswordHash: string(hash),
		Name:         "Ana",
		Status:       models.StudentActive,
	}
}

func TestAuthService_StudentLogin(t *testing.T) {
	students := &MockStudentRepository{}
	students.On("GetByUsername", mock.Anything, "ana").Return(activeStudent(t, "ana", "secret1"), nil)
	students.On("GetByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)

	svc := NewAuthService(students, testAuthConfig(time.Hour), testLogger(), validator.New())

	resp, err := svc.StudentLogin(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.Equal(t, uint(42), resp.StudentID)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.StudentLogin(context.Background(), LoginRequest{Username: "ana", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown user reports the same error as a bad password
	_, err = svc.StudentLogin(context.Background(), LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_StudentLogin_Disabled(t *testing.T) {
	student := activeStudent(t, "ana", "secret1")
	student.Status = models.StudentDisabled

	students := &MockStudentRepository{}
	students.On("GetByUsername", mock.Anything, "ana").Return(student, nil)

	svc := NewAuthService(students, testAuthConfig(time.Hour), testLogger(), validator.New())
	_, err := svc.StudentLogin(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	assert.ErrorIs(t, err, ErrStudentDisabled)
}

func TestAuthService_TeacherLogin(t *testing.T) {
	svc := NewAuthService(&MockStudentRepository{}, testAuthConfig(time.Hour), testLogger(), validator.New())

	resp, err := svc.TeacherLogin(context.Background(), LoginRequest{Username: "academicxs", Password: "simulador"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, resp.Role)
	assert.Zero(t, resp.StudentID)

	_, err = svc.TeacherLogin(context.Background(), LoginRequest{Username: "academicxs", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.TeacherLogin(context.Background(), LoginRequest{Username: "intruder", Password: "simulador"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	students := &MockStudentRepository{}
	students.On("GetByUsername", mock.Anything, "ana").Return(activeStudent(t, "ana", "secret1"), nil)

	svc := NewAuthService(students, testAuthConfig(time.Hour), testLogger(), validator.New())
	resp, err := svc.StudentLogin(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, uint(42), claims.StudentID)

	_, err = svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// token signed with another secret does not parse
	other := NewAuthService(students, AuthConfig{JWTSecret: "different", TokenTTL: time.Hour}, testLogger(), validator.New())
	_, err = other.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ExpiredToken(t *testing.T) {
	students := &MockStudentRepository{}
	students.On("GetByUsername", mock.Anything, "ana").Return(activeStudent(t, "ana", "secret1"), nil)

	svc := NewAuthService(students, testAuthConfig(-time.Minute), testLogger(), validator.New())
	resp, err := svc.StudentLogin(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RegisterStudent(t *testing.T) {
	students := &MockStudentRepository{}
	students.On("GetByUsername", mock.Anything, "nueva").Return(nil, gorm.ErrRecordNotFound)
	students.On("GetByUsername", mock.Anything, "taken").Return(activeStudent(t, "taken", "x1234567"), nil)
	students.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Student) bool {
		return s.Username == "nueva" && s.Status == models.StudentActive && s.PasswordHash != "contrasena"
	})).Return(nil)

	svc := NewAuthService(students, testAuthConfig(time.Hour), testLogger(), validator.New())

	student, err := svc.RegisterStudent(context.Background(), RegisterStudentRequest{
		Username: "nueva",
		Password: "contrasena",
		Name:     "Nueva Estudiante",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("contrasena")))

	_, err = svc.RegisterStudent(context.Background(), RegisterStudentRequest{Username: "taken", Password: "contrasena"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
