package user

import "time"

const (
	RoleAdmin     = "admin"
	RoleHRManager = "hr_manager"
	RoleManager   = "manager"
	RoleEmployee  = "employee"
)

var Roles = []string{RoleAdmin, RoleHRManager, RoleManager, RoleEmployee}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID            int64      `db:"id" gorm:"primaryKey"`
	Username      string     `db:"username" gorm:"column:username;uniqueIndex;not null"`
	Email         string     `db:"email" gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string     `db:"password_hash" gorm:"column:password_hash;not null"`
	Role          string     `db:"role" gorm:"column:role;not null"`
	EmployeeID    *int64     `db:"employee_id" gorm:"column:employee_id"`
	IsActive      bool       `db:"is_active" gorm:"column:is_active;not null;default:true"`
	EmailVerified bool       `db:"email_verified" gorm:"column:email_verified;not null;default:false"`
	LastLogin     *time.Time `db:"last_login" gorm:"column:last_login"`
	CreatedAt     time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type PasswordResetToken struct {
	ID        int64      `db:"id" gorm:"primaryKey"`
	UserID    int64      `db:"user_id" gorm:"column:user_id;not null;index"`
	TokenID   string     `db:"token_id" gorm:"column:token_id;uniqueIndex;not null"`
	ExpiresAt time.Time  `db:"expires_at" gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `db:"used_at" gorm:"column:used_at"`
	CreatedAt time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

type UserWithEmployee struct {
	User
	EmployeeName *string `db:"employee_name" gorm:"-"`
}
