package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/hr-management/internal"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/employee"
	"github.com/frahmantamala/hr-management/internal/user"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.UserWithEmployee, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.UserWithEmployee, error)
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
}

type ResetTokenRepository interface {
	Create(ctx context.Context, t *userDatamodel.PasswordResetToken) error
	GetUsable(ctx context.Context, tokenID string, now time.Time) (*userDatamodel.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error
}

type EmployeeCreator interface {
	Create(ctx context.Context, dto *employee.CreateEmployeeDTO) (*employee.Employee, error)
}

type AccountCreator interface {
	Create(ctx context.Context, dto *user.CreateUserDTO) (*user.User, error)
}

type Dependencies struct {
	Users       UserRepository
	ResetTokens ResetTokenRepository
	Employees   EmployeeCreator
	Accounts    AccountCreator
	Tokens      TokenGenerator
	Denylist    Denylist
	Tx          database.TxManager
	Publisher   events.Publisher
	Logger      *slog.Logger
	BCryptCost  int
}

// Service is the main auth service with dependencies
type Service struct {
	Dependencies
	now func() time.Time
}

func NewService(deps Dependencies) *Service {
	if deps.Denylist == nil {
		deps.Denylist = NewMemoryDenylist()
	}
	return &Service{Dependencies: deps, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login never reveals whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	row, err := s.Users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		s.Logger.Error("failed to load user for login", "error", err)
		return nil, err
	}

	u := user.FromDataModel(row)
	if !u.CheckPassword(dto.Password) {
		s.Logger.Warn("login failed: wrong password", "user_id", u.ID)
		return nil, appErrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, appErrors.ErrAccountInactive
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.Users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.Logger.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}
	u.LastLogin = &now

	s.Logger.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return &LoginResult{
		User:         u.ToSafe(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Logout revokes the presented access token until its natural expiry.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.Tokens.Validate(accessToken, TokenTypeAccess)
	if err != nil {
		return err
	}
	if err := s.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.Logger.Error("failed to revoke token", "error", err, "user_id", claims.UserID)
		return appErrors.NewInternalError("failed to log out", err)
	}
	s.Logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// Authenticate resolves an access token into the caller identity.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*appErrors.Identity, error) {
	claims, err := s.Tokens.Validate(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.Logger.Error("denylist lookup failed", "error", err)
		return nil, appErrors.NewInternalError("failed to verify token", err)
	}
	if revoked {
		return nil, appErrors.ErrInvalidToken
	}

	row, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrNotAuthenticated
		}
		return nil, err
	}
	if !row.IsActive {
		return nil, appErrors.ErrAccountInactive
	}

	return &appErrors.Identity{
		UserID:     row.ID,
		Username:   row.Username,
		Role:       row.Role,
		EmployeeID: row.EmployeeID,
		TokenID:    claims.ID,
	}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*user.User, error) {
	row, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(row), nil
}

// UpdateProfile changes username and/or email; a new email must be verified again.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*user.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dto.Username != nil {
		username := strings.TrimSpace(*dto.Username)
		if username != u.Username {
			taken, err := s.Users.UsernameTaken(ctx, username, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, appErrors.NewConflictError("Username already exists", appErrors.ErrCodeDuplicateUsername)
			}
			u.Username = username
		}
	}
	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if email != u.Email {
			taken, err := s.Users.EmailTaken(ctx, email, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, appErrors.NewConflictError("Email already exists", appErrors.ErrCodeDuplicateEmail)
			}
			u.Email = email
			u.EmailVerified = false
		}
	}

	u.UpdatedAt = s.now()
	if err := s.Users.Update(ctx, user.ToDataModel(u)); err != nil {
		s.Logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, err
	}
	return s.Me(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !u.CheckPassword(dto.CurrentPassword) {
		return appErrors.ErrWrongPassword
	}

	hash, err := user.HashPassword(dto.NewPassword, s.BCryptCost)
	if err != nil {
		return appErrors.NewInternalError("failed to hash password", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		s.Logger.Error("failed to change password", "error", err, "user_id", userID)
		return err
	}
	s.Logger.Info("password changed", "user_id", userID)
	return nil
}

// ForgotPassword answers the same way whether or not the email belongs to an account.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	row, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !row.IsActive {
		return nil
	}

	issued, err := s.Tokens.Generate(Subject{UserID: row.ID, Username: row.Username, Role: row.Role}, TokenTypePasswordReset)
	if err != nil {
		return appErrors.NewInternalError("failed to issue reset token", err)
	}

	now := s.now()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ResetTokens.RevokeAllForUser(ctx, row.ID, now); err != nil {
			return err
		}
		return s.ResetTokens.Create(ctx, &userDatamodel.PasswordResetToken{
			UserID:    row.ID,
			TokenID:   issued.ID,
			ExpiresAt: issued.ExpiresAt,
			CreatedAt: now,
		})
	})
	if err != nil {
		s.Logger.Error("failed to persist reset token", "error", err, "user_id", row.ID)
		return err
	}

	s.publish(ctx, events.NewPasswordResetRequestedEvent(row.ID, row.Email, row.Username, issued.Token))
	s.Logger.Info("password reset requested", "user_id", row.ID)
	return nil
}

// ResetPassword requires both a valid signed token and an unused persisted record for it.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.Tokens.Validate(token, TokenTypePasswordReset)
	if err != nil {
		return err
	}

	hash, err := user.HashPassword(newPassword, s.BCryptCost)
	if err != nil {
		return appErrors.NewInternalError("failed to hash password", err)
	}

	now := s.now()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.ResetTokens.GetUsable(ctx, claims.ID, now)
		if err != nil {
			return err
		}
		if record.UserID != claims.UserID {
			return appErrors.ErrInvalidToken
		}
		if err := s.Users.UpdatePassword(ctx, claims.UserID, hash, now); err != nil {
			return err
		}
		return s.ResetTokens.MarkUsed(ctx, record.ID, now)
	})
	if err != nil {
		if _, ok := appErrors.IsAppError(err); !ok {
			s.Logger.Error("failed to reset password", "error", err, "user_id", claims.UserID)
		}
		return err
	}

	s.Logger.Info("password reset", "user_id", claims.UserID)
	return nil
}

// RefreshTokens rotates the pair; the presented refresh token is revoked.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.Tokens.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to verify token", err)
	}
	if revoked {
		return nil, appErrors.ErrInvalidToken
	}

	row, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	u := user.FromDataModel(row)
	if !u.IsActive {
		return nil, appErrors.ErrAccountInactive
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.Logger.Warn("failed to revoke rotated refresh token", "error", err, "user_id", u.ID)
	}
	return pair, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.Tokens.Validate(token, TokenTypeEmailVerification)
	if err != nil {
		return err
	}
	if err := s.Users.MarkEmailVerified(ctx, claims.UserID, s.now()); err != nil {
		return err
	}
	s.Logger.Info("email verified", "user_id", claims.UserID)
	return nil
}

// ResendVerification is silent for unknown or already verified addresses.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	row, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if row.EmailVerified || !row.IsActive {
		return nil
	}

	issued, err := s.Tokens.Generate(Subject{UserID: row.ID, Username: row.Username, Role: row.Role}, TokenTypeEmailVerification)
	if err != nil {
		return appErrors.NewInternalError("failed to issue verification token", err)
	}
	s.publish(ctx, events.NewVerificationRequestedEvent(row.ID, row.Email, row.Username, issued.Token))
	return nil
}

func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	taken, err := s.Users.EmailTaken(ctx, strings.ToLower(strings.TrimSpace(email)), 0)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *Service) CheckUsername(ctx context.Context, username string) (bool, error) {
	taken, err := s.Users.UsernameTaken(ctx, strings.TrimSpace(username), 0)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Register creates the employee record and its login account in one transaction.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*user.User, error) {
	var created *user.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		empDTO := dto.Employee
		if empDTO.Email == nil {
			email := dto.Email
			empDTO.Email = &email
		}
		emp, err := s.Employees.Create(ctx, &empDTO)
		if err != nil {
			return err
		}

		created, err = s.Accounts.Create(ctx, &user.CreateUserDTO{
			Username:   dto.Username,
			Email:      dto.Email,
			Password:   dto.Password,
			Role:       dto.Role,
			EmployeeID: &emp.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	issued, err := s.Tokens.Generate(Subject{UserID: created.ID, Username: created.Username, Role: created.Role}, TokenTypeEmailVerification)
	if err == nil {
		s.publish(ctx, events.NewVerificationRequestedEvent(created.ID, created.Email, created.Username, issued.Token))
	}

	s.Logger.Info("account registered", "user_id", created.ID, "employee_id", created.EmployeeID)
	return created, nil
}

func (s *Service) AccessTokenTTL() time.Duration {
	return s.Tokens.TTL(TokenTypeAccess)
}

func (s *Service) issuePair(u *user.User) (*TokenPair, error) {
	subject := Subject{UserID: u.ID, Username: u.Username, Role: u.Role}
	access, err := s.Tokens.Generate(subject, TokenTypeAccess)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to issue access token", err)
	}
	refresh, err := s.Tokens.Generate(subject, TokenTypeRefresh)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to issue refresh token", err)
	}
	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.Tokens.TTL(TokenTypeAccess).Seconds()),
	}, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
