package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
)

type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	EmployeeID    *int64
	EmployeeName  *string
	IsActive      bool
	EmailVerified bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SafeUser is the only shape a user leaves the service in; it never carries the password hash.
type SafeUser struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	EmployeeID    *int64     `json:"employeeId"`
	EmployeeName  *string    `json:"employeeName,omitempty"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	LastLogin     *time.Time `json:"lastLogin"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == userDatamodel.RoleAdmin
}

func (u *User) HasEmployeeProfile() bool {
	return u.EmployeeID != nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) ToSafe() SafeUser {
	return SafeUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		EmployeeID:    u.EmployeeID,
		EmployeeName:  u.EmployeeName,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		EmployeeID:    u.EmployeeID,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.UserWithEmployee) *User {
	return &User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		EmployeeID:    u.EmployeeID,
		EmployeeName:  u.EmployeeName,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
