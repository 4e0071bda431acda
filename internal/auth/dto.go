package auth

import (
	"github.com/frahmantamala/hr-management/internal/employee"
	"github.com/frahmantamala/hr-management/internal/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type UpdateProfileDTO struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type EmailDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type UsernameDTO struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
}

type ResetPasswordDTO struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterDTO creates an employee record and its login account together.
type RegisterDTO struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,role"`

	Employee employee.CreateEmployeeDTO `json:"employee" validate:"required"`
}

type LoginResult struct {
	User         user.SafeUser `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}
