package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/hr-management/internal"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter, p pagination.Params) ([]*userDatamodel.UserWithEmployee, int64, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.UserWithEmployee, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	EmployeeLinked(ctx context.Context, employeeID int64, excludeID int64) (bool, error)
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
}

type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo RepositoryAPI, logger *slog.Logger, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[SafeUser], error) {
	rows, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	items := make([]SafeUser, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row).ToSafe())
	}
	return &pagination.Page[SafeUser]{Items: items, Meta: pagination.NewMeta(p, total)}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *CreateUserDTO) (*User, error) {
	username := strings.TrimSpace(dto.Username)
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	if err := s.CheckAvailability(ctx, username, email, dto.EmployeeID, 0); err != nil {
		return nil, err
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	isActive := true
	if dto.IsActive != nil {
		isActive = *dto.IsActive
	}

	now := time.Now()
	row := &userDatamodel.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         dto.Role,
		EmployeeID:   dto.EmployeeID,
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Username or email already exists", errors.ErrCodeDuplicateAccount)
		}
		s.logger.Error("failed to create user", "error", err, "username", username)
		return nil, err
	}

	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateUserDTO) (*User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	username := current.Username
	if dto.Username != nil {
		username = strings.TrimSpace(*dto.Username)
	}
	email := current.Email
	if dto.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*dto.Email))
	}

	var linkCheck *int64
	if dto.EmployeeID != nil && (current.EmployeeID == nil || *current.EmployeeID != *dto.EmployeeID) {
		linkCheck = dto.EmployeeID
	}
	if err := s.CheckAvailability(ctx, username, email, linkCheck, id); err != nil {
		return nil, err
	}

	current.Username = username
	current.Email = email
	if dto.Role != nil {
		current.Role = *dto.Role
	}
	if dto.EmployeeID != nil {
		current.EmployeeID = dto.EmployeeID
	}
	if dto.IsActive != nil {
		current.IsActive = *dto.IsActive
	}
	if dto.Password != nil {
		hash, err := HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, errors.NewInternalError("failed to hash password", err)
		}
		current.PasswordHash = hash
	}
	current.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Username or email already exists", errors.ErrCodeDuplicateAccount)
		}
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", id)
	return s.Get(ctx, id)
}

// Delete removes a login account; admins cannot remove their own.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return errors.ErrCannotDeleteSelf
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to delete user", "error", err, "user_id", id)
		}
		return err
	}
	s.logger.Info("user deleted", "user_id", id, "deleted_by", actorID)
	return nil
}

// CheckAvailability enforces unique username/email and at most one account per employee.
func (s *Service) CheckAvailability(ctx context.Context, username, email string, employeeID *int64, excludeID int64) error {
	taken, err := s.repo.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errors.NewConflictError("Username already exists", errors.ErrCodeDuplicateUsername)
	}

	taken, err = s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errors.NewConflictError("Email already exists", errors.ErrCodeDuplicateEmail)
	}

	if employeeID != nil {
		exists, err := s.repo.EmployeeExists(ctx, *employeeID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewValidationFieldError("employeeId", "Employee does not exist", errors.ErrCodeEmployeeNotFound)
		}
		linked, err := s.repo.EmployeeLinked(ctx, *employeeID, excludeID)
		if err != nil {
			return err
		}
		if linked {
			return errors.NewConflictError("Employee already has a user account", errors.ErrCodeDuplicateAccount)
		}
	}
	return nil
}
