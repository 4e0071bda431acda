package department

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/hr-management/internal"
	departmentDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/department"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/database"
)

type RepositoryAPI interface {
	List(ctx context.Context, search *string, p pagination.Params) ([]*departmentDatamodel.DepartmentWithStats, int64, error)
	ListSimple(ctx context.Context) ([]*departmentDatamodel.DepartmentWithStats, error)
	Statistics(ctx context.Context) ([]*departmentDatamodel.DepartmentStatistics, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.DepartmentWithStats, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	Update(ctx context.Context, d *departmentDatamodel.Department) error
	Delete(ctx context.Context, id int64) error
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
	CountEmployees(ctx context.Context, departmentID int64) (int64, error)
}

type Service struct {
	repo   RepositoryAPI
	tx     database.TxManager
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, tx database.TxManager, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, search *string, p pagination.Params) (*pagination.Page[*Department], error) {
	rows, total, err := s.repo.List(ctx, search, p)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, err
	}
	items := make([]*Department, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return &pagination.Page[*Department]{Items: items, Meta: pagination.NewMeta(p, total)}, nil
}

func (s *Service) ListSimple(ctx context.Context) ([]SimpleDepartment, error) {
	rows, err := s.repo.ListSimple(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, err
	}
	result := make([]SimpleDepartment, 0, len(rows))
	for _, row := range rows {
		result = append(result, SimpleDepartment{ID: row.ID, Name: row.Name, EmployeeCount: row.EmployeeCount})
	}
	return result, nil
}

// Statistics splits headcount into active and non-active, unlike employeeCount which counts every row.
func (s *Service) Statistics(ctx context.Context) (*StatisticsResponse, error) {
	rows, err := s.repo.Statistics(ctx)
	if err != nil {
		s.logger.Error("failed to get department statistics", "error", err)
		return nil, err
	}
	resp := &StatisticsResponse{
		TotalDepartments: len(rows),
		Departments:      make([]DepartmentStatistics, 0, len(rows)),
	}
	for _, row := range rows {
		resp.TotalEmployees += row.TotalEmployees
		resp.ActiveEmployees += row.ActiveEmployees
		resp.InactiveEmployees += row.InactiveEmployees
		resp.Departments = append(resp.Departments, DepartmentStatistics{
			ID:                row.ID,
			Name:              row.Name,
			TotalEmployees:    row.TotalEmployees,
			ActiveEmployees:   row.ActiveEmployees,
			InactiveEmployees: row.InactiveEmployees,
		})
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *CreateDepartmentDTO) (*Department, error) {
	name := strings.TrimSpace(dto.Name)
	if err := s.checkName(ctx, name, 0); err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, dto.ManagerID); err != nil {
		return nil, err
	}

	now := time.Now()
	row := &departmentDatamodel.Department{
		Name:        name,
		Description: dto.Description,
		ManagerID:   dto.ManagerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Department name already exists", errors.ErrCodeDuplicateName)
		}
		s.logger.Error("failed to create department", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("department created", "department_id", row.ID, "name", name)
	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateDepartmentDTO) (*Department, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if err := s.checkName(ctx, name, id); err != nil {
			return nil, err
		}
		current.Name = name
	}
	if dto.Description != nil {
		current.Description = dto.Description
	}
	if dto.ManagerID != nil {
		if err := s.checkManager(ctx, dto.ManagerID); err != nil {
			return nil, err
		}
		current.ManagerID = dto.ManagerID
	}
	current.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Department name already exists", errors.ErrCodeDuplicateName)
		}
		s.logger.Error("failed to update department", "error", err, "department_id", id)
		return nil, err
	}

	s.logger.Info("department updated", "department_id", id)
	return s.Get(ctx, id)
}

// Delete refuses while any employee row, whatever its status, still references the department.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		count, err := s.repo.CountEmployees(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.ErrDepartmentHasEmployees
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to delete department", "error", err, "department_id", id)
		}
		return err
	}
	s.logger.Info("department deleted", "department_id", id)
	return nil
}

func (s *Service) checkName(ctx context.Context, name string, excludeID int64) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errors.NewConflictError("Department name already exists", errors.ErrCodeDuplicateName)
	}
	return nil
}

func (s *Service) checkManager(ctx context.Context, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	exists, err := s.repo.EmployeeExists(ctx, *managerID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewValidationFieldError("managerId", "Manager must be an existing employee", errors.ErrCodeEmployeeNotFound)
	}
	return nil
}
