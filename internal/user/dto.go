package user

type CreateUserDTO struct {
	Username   string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email      string `json:"email" validate:"required,email,max=100"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Role       string `json:"role" validate:"required,role"`
	EmployeeID *int64 `json:"employeeId" validate:"omitempty,gt=0"`
	IsActive   *bool  `json:"isActive"`
}

type UpdateUserDTO struct {
	Username   *string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	Email      *string `json:"email" validate:"omitempty,email,max=100"`
	Password   *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role       *string `json:"role" validate:"omitempty,role"`
	EmployeeID *int64  `json:"employeeId" validate:"omitempty,gt=0"`
	IsActive   *bool   `json:"isActive"`
}

type ListFilter struct {
	Role     *string
	IsActive *bool
	Search   *string
}
