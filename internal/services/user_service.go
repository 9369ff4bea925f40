package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/security"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidStatus      = errors.New("unknown user status")
)

var userSortFields = []string{"first_name", "last_name", "email", "status", "created_at"}

type UserService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewUserService(db *gorm.DB, cfg *config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// Register creates an account with the agent role. The caller validates
// field contents; only email uniqueness is enforced here.
func (s *UserService) Register(req dto.RegisterRequest) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var role models.Role
	if err := s.db.Where("name = ?", models.RoleAgent).First(&role).Error; err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		RoleID:    role.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hash,
		Status:    models.UserStatusActive,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies email/password credentials. Inactive and
// suspended accounts are refused even with a correct password.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !security.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrInactiveAccount
	}
	return &user, nil
}

// IssueRememberToken mints a remember-me token, stores its digest and
// returns the plaintext for the cookie.
func (s *UserService) IssueRememberToken(userID uint, now time.Time) (string, error) {
	token, err := security.NewToken()
	if err != nil {
		return "", err
	}
	hash := security.HashToken(token)
	expires := now.AddDate(0, 0, s.cfg.RememberCookieDays)
	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"remember_token":         hash,
		"remember_token_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// AuthenticateRememberToken validates a remember-me cookie value for the
// given user id.
func (s *UserService) AuthenticateRememberToken(userID uint, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if user.RememberToken == nil {
		return nil, ErrInvalidToken
	}
	if !security.ValidToken(*user.RememberToken, token, user.RememberTokenExpires, now) {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrInactiveAccount
	}
	return &user, nil
}

// ClearRememberToken drops a stored remember-me token, e.g. on logout.
func (s *UserService) ClearRememberToken(userID uint) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"remember_token":         nil,
		"remember_token_expires": nil,
	}).Error
}

// IssueAPIToken mints an API token usable without a live session.
func (s *UserService) IssueAPIToken(userID uint, now time.Time) (string, error) {
	token, err := security.NewToken()
	if err != nil {
		return "", err
	}
	hash := security.HashToken(token)
	expires := now.Add(s.cfg.APITokenLifetime)
	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"api_token":         hash,
		"api_token_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// AuthenticateAPIToken resolves a presented API token to its user.
func (s *UserService) AuthenticateAPIToken(token string, now time.Time) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Where("api_token = ?", security.HashToken(token)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if user.APIToken == nil || !security.ValidToken(*user.APIToken, token, user.APITokenExpires, now) {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrInactiveAccount
	}
	return &user, nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) applyFilter(query *gorm.DB, filter dto.UserFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}
	if filter.RoleID != 0 {
		query = query.Where("role_id = ?", filter.RoleID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

func (s *UserService) List(filter dto.UserFilter, opts dto.ListOptions) ([]models.User, error) {
	var users []models.User
	query := s.applyFilter(s.db.Model(&models.User{}), filter).Preload("Role")
	query = applyListOptions(query, opts, "created_at", userSortFields)
	return users, query.Find(&users).Error
}

func (s *UserService) Count(filter dto.UserFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.Model(&models.User{}), filter).Count(&count).Error
	return count, err
}

// UpdateProfile changes name and email, refusing an email already used
// by another account.
func (s *UserService) UpdateProfile(id uint, req dto.ProfileUpdateRequest) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", req.Email, id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"email":      req.Email,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ChangePassword verifies the current password before storing a new one.
func (s *UserService) ChangePassword(id uint, current, newPassword string) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if !security.CheckPassword(user.Password, current) {
		return ErrWrongPassword
	}
	hash, err := security.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("password", hash).Error
}

func (s *UserService) SetTheme(id uint, theme string) error {
	if theme != "light" && theme != "dark" {
		theme = "light"
	}
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("theme", theme).Error
}

func (s *UserService) SetProfileImage(id uint, filename string) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("profile_image", filename).Error
}

// UpdateStatus sets an account's status (admin operation).
func (s *UserService) UpdateStatus(id uint, status string) error {
	switch status {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
	default:
		return ErrInvalidStatus
	}
	result := s.db.Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) Delete(id uint) error {
	result := s.db.Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Agents lists active agent and admin accounts for owner pickers.
func (s *UserService) Agents() ([]models.User, error) {
	var users []models.User
	err := s.db.Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name IN ?", []string{models.RoleAdmin, models.RoleAgent}).
		Where("users.status = ?", models.UserStatusActive).
		Order("users.first_name ASC").
		Find(&users).Error
	return users, err
}

// PasswordResetToken signs a short-lived reset token for the account
// behind email. ErrUserNotFound leaks no timing difference worth hiding
// here; the handler responds identically either way.
func (s *UserService) PasswordResetToken(email string, now time.Time) (string, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// ResetPassword consumes a reset token and stores the new password.
func (s *UserService) ResetPassword(token, newPassword string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return ErrInvalidToken
	}
	hash, err := security.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	result := s.db.Model(&models.User{}).Where("id = ?", uint(id)).Update("password", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
