package services

import (
	"errors"
	"strings"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	db     *gorm.DB
	config *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, config: cfg}
}

// JWT Claims
type Claims struct {
	UserID    uuid.UUID       `json:"user_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity the services use.
func (c *Claims) Actor() models.Actor {
	return models.Actor{UserID: c.UserID, Role: c.Role, CompanyID: c.CompanyID}
}

// RegisterInput is what a new account supplies. CompanyName is required for
// company users and creates the company they act for.
type RegisterInput struct {
	Email       string          `validate:"required,email"`
	Password    string          `validate:"required,min=8"`
	FirstName   string          `validate:"required"`
	LastName    string          `validate:"required"`
	Title       string          `validate:"omitempty,max=120"`
	Role        models.UserRole `validate:"required,oneof=team_member company_user"`
	CompanyName string          `validate:"required_if=Role company_user"`
}

// HashPassword creates a bcrypt hash of the password
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func (s *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken creates a JWT token for a user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.JWTExpiration) * time.Hour)

	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.config.AppName,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Register creates a new user account. Company users get their company
// created in the same transaction.
func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	const op = "auth.Register"

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validatePayload(op, in); err != nil {
		return nil, err
	}

	passwordHash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Title:        in.Title,
		Role:         in.Role,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.Conflict(op, "email already registered")
		}

		if in.Role == models.RoleCompanyUser {
			company := &models.Company{Name: in.CompanyName}
			if err := tx.Create(company).Error; err != nil {
				return err
			}
			user.CompanyID = &company.ID
		}

		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict(op, "email already registered")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !s.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Company").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("auth.GetUserByID", "user %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// EnsureAdmin creates the platform admin account when it does not exist yet.
func (s *AuthService) EnsureAdmin(email, password string) (*models.User, bool, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	passwordHash, err := s.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user = models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}
