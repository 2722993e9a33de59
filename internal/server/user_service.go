package server

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/config"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/types"
)

// DBClient is the user storage the authentication flow needs.
type DBClient interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email, phone string, role db.Role) (uuid.UUID, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserService provides business logic for user authentication operations
type UserService struct {
	db             DBClient
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(db DBClient, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		db:             db,
		passwordConfig: passwordConfig,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	return &types.User{
		ID:          dbUser.ID,
		Name:        dbUser.Name,
		Email:       dbUser.Email,
		Phone:       dbUser.Phone,
		Role:        string(dbUser.Role),
		PasswordSet: dbUser.PasswordSet,
		CreatedAt:   dbUser.CreatedAt,
		UpdatedAt:   dbUser.UpdatedAt,
	}
}

// Register creates a new user with password authentication. An empty role
// registers a plain employee.
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	exists, err := s.db.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email existence")
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	role := db.Role(req.Role)
	if role == "" {
		role = db.RoleEmployee
	}
	if !role.Valid() {
		return nil, &ErrValidation{Field: "role", Message: "unknown role " + req.Role}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	// Two steps: create the user, then set the password.
	userID, err := s.db.CreateUser(ctx, req.Name, req.Email, req.Phone, role)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	if err := s.db.UpdatePassword(ctx, userID, passwordHash); err != nil {
		// a user without a password cannot sign in, so do not leave one behind
		_ = s.db.DeleteUser(ctx, userID)
		return nil, errors.Wrap(err, "failed to set password")
	}

	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve created user")
	}
	if dbUser == nil {
		return nil, errors.Newf("created user not found: %s", userID)
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	dbUser, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by email")
	}

	// Same error whether the user is missing or the password is wrong.
	if dbUser == nil || !dbUser.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// Me returns the profile of an authenticated user.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	if dbUser == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to get user")
	}
	if dbUser == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, dbUser.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	if err := s.db.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	return nil
}
