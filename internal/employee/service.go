package employee

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	errors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/core/validation"
	"github.com/frahmantamala/hr-management/internal/database"
)

const (
	defaultRecentLimit   = 5
	maxRecentLimit       = 50
	defaultUpcomingDays  = 30
	maxUpcomingDays      = 366
	unassignedDepartment = "Unassigned"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter, p pagination.Params) ([]*employeeDatamodel.EmployeeWithDepartment, int64, error)
	Search(ctx context.Context, query string, p pagination.Params) ([]*employeeDatamodel.EmployeeWithDepartment, int64, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.EmployeeWithDepartment, error)
	Create(ctx context.Context, e *employeeDatamodel.Employee) error
	Update(ctx context.Context, e *employeeDatamodel.Employee) error
	UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error
	HardDelete(ctx context.Context, id int64) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	NationalIDTaken(ctx context.Context, nationalID string, excludeID int64) (bool, error)
	DepartmentExists(ctx context.Context, departmentID int64) (bool, error)
	Recent(ctx context.Context, limit int) ([]*employeeDatamodel.EmployeeWithDepartment, error)
	ListActive(ctx context.Context) ([]*employeeDatamodel.EmployeeWithDepartment, error)
	StatisticsByDepartment(ctx context.Context) ([]*employeeDatamodel.DepartmentHeadcount, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByGender(ctx context.Context) (map[string]int64, error)
	CountHiredSince(ctx context.Context, since time.Time) (int64, error)
	CountDepartments(ctx context.Context) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	tx        database.TxManager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, tx database.TxManager, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[*Employee], error) {
	rows, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return toPage(rows, total, p), nil
}

func (s *Service) Search(ctx context.Context, query string, p pagination.Params) (*pagination.Page[*Employee], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationFieldError("q", "q is required", errors.ErrCodeValidationFailed)
	}
	rows, total, err := s.repo.Search(ctx, query, p)
	if err != nil {
		s.logger.Error("failed to search employees", "error", err, "query", query)
		return nil, err
	}
	return toPage(rows, total, p), nil
}

func (s *Service) ListByDepartment(ctx context.Context, departmentID int64, p pagination.Params) (*pagination.Page[*Employee], error) {
	exists, err := s.repo.DepartmentExists(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.ErrDepartmentNotFound
	}
	return s.List(ctx, ListFilter{DepartmentID: &departmentID}, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromJoinedDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *CreateEmployeeDTO) (*Employee, error) {
	dob, appErr := validation.ParseDate("dateOfBirth", dto.DateOfBirth)
	if appErr != nil {
		return nil, appErr
	}
	hireDate, appErr := validation.ParseDate("hireDate", dto.HireDate)
	if appErr != nil {
		return nil, appErr
	}

	status := employeeDatamodel.StatusActive
	if dto.EmploymentStatus != nil {
		status = *dto.EmploymentStatus
	}

	now := s.now()
	emp := &Employee{
		FullName:         strings.TrimSpace(dto.FullName),
		DateOfBirth:      dob,
		Gender:           dto.Gender,
		Email:            normalizeEmail(dto.Email),
		Phone:            dto.Phone,
		Address:          dto.Address,
		NationalID:       dto.NationalID,
		DepartmentID:     dto.DepartmentID,
		Position:         dto.Position,
		HireDate:         hireDate,
		EmploymentStatus: status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.checkConstraints(ctx, emp, 0); err != nil {
		return nil, err
	}

	row := ToDataModel(emp)
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Employee with this email or national ID already exists", errors.ErrCodeDuplicateEmail)
		}
		s.logger.Error("failed to create employee", "error", err)
		return nil, err
	}

	s.logger.Info("employee created", "employee_id", row.ID, "department_id", row.DepartmentID)
	s.publish(ctx, events.NewEmployeeCreatedEvent(row.ID, row.EmploymentStatus))

	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateEmployeeDTO) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emp := FromJoinedDataModel(row)
	previousStatus := emp.EmploymentStatus

	if dto.FullName != nil {
		emp.FullName = strings.TrimSpace(*dto.FullName)
	}
	if dto.DateOfBirth != nil {
		dob, appErr := validation.ParseDate("dateOfBirth", dto.DateOfBirth)
		if appErr != nil {
			return nil, appErr
		}
		emp.DateOfBirth = dob
	}
	if dto.HireDate != nil {
		hireDate, appErr := validation.ParseDate("hireDate", dto.HireDate)
		if appErr != nil {
			return nil, appErr
		}
		emp.HireDate = hireDate
	}
	if dto.Gender != nil {
		emp.Gender = dto.Gender
	}
	if dto.Email != nil {
		emp.Email = normalizeEmail(dto.Email)
	}
	if dto.Phone != nil {
		emp.Phone = dto.Phone
	}
	if dto.Address != nil {
		emp.Address = dto.Address
	}
	if dto.NationalID != nil {
		emp.NationalID = dto.NationalID
	}
	if dto.DepartmentID != nil {
		emp.DepartmentID = dto.DepartmentID
	}
	if dto.Position != nil {
		emp.Position = dto.Position
	}
	if dto.EmploymentStatus != nil {
		emp.EmploymentStatus = *dto.EmploymentStatus
	}

	if err := s.checkConstraints(ctx, emp, id); err != nil {
		return nil, err
	}

	emp.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, ToDataModel(emp)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("Employee with this email or national ID already exists", errors.ErrCodeDuplicateEmail)
		}
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	if previousStatus != emp.EmploymentStatus {
		s.publish(ctx, events.NewEmployeeStatusChangedEvent(id, emp.EmploymentStatus))
	}
	s.logger.Info("employee updated", "employee_id", id)
	return s.Get(ctx, id)
}

// UpdateStatus changes the employment status. Reactivation re-checks email and national id
// against the employees that are active now.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emp := FromJoinedDataModel(row)
	if status == employeeDatamodel.StatusActive && emp.EmploymentStatus != employeeDatamodel.StatusActive {
		if err := s.checkConstraints(ctx, emp, id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		s.logger.Error("failed to update employee status", "error", err, "employee_id", id)
		return nil, err
	}
	s.logger.Info("employee status changed", "employee_id", id, "status", status)
	s.publish(ctx, events.NewEmployeeStatusChangedEvent(id, status))
	return s.Get(ctx, id)
}

// SoftDelete marks the employee terminated. The department reference is kept.
func (s *Service) SoftDelete(ctx context.Context, id int64) (*Employee, error) {
	return s.UpdateStatus(ctx, id, employeeDatamodel.StatusTerminated)
}

// HardDelete removes the employee and its attendance, unlinking any user account and
// department manager reference, in one transaction.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return s.repo.HardDelete(ctx, id)
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to permanently delete employee", "error", err, "employee_id", id)
		}
		return err
	}
	s.logger.Warn("employee permanently deleted", "employee_id", id)
	return nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]*Employee, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	rows, err := s.repo.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to get recent employees", "error", err)
		return nil, err
	}
	result := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		result = append(result, FromJoinedDataModel(row))
	}
	return result, nil
}

func (s *Service) UpcomingBirthdays(ctx context.Context, days int) ([]UpcomingEventResponse, error) {
	return s.upcoming(ctx, days, func(e *Employee, now time.Time) (*time.Time, int) {
		next := e.NextBirthday(now)
		if next == nil {
			return nil, 0
		}
		return next, next.Year() - e.DateOfBirth.Year()
	})
}

func (s *Service) UpcomingAnniversaries(ctx context.Context, days int) ([]UpcomingEventResponse, error) {
	return s.upcoming(ctx, days, func(e *Employee, now time.Time) (*time.Time, int) {
		next := e.NextAnniversary(now)
		if next == nil {
			return nil, 0
		}
		return next, next.Year() - e.HireDate.Year()
	})
}

func (s *Service) upcoming(ctx context.Context, days int, next func(*Employee, time.Time) (*time.Time, int)) ([]UpcomingEventResponse, error) {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	if days > maxUpcomingDays {
		days = maxUpcomingDays
	}

	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active employees", "error", err)
		return nil, err
	}

	now := s.now()
	result := make([]UpcomingEventResponse, 0)
	for _, row := range rows {
		emp := FromJoinedDataModel(row)
		date, years := next(emp, now)
		if date == nil {
			continue
		}
		until := daysBetween(now, *date)
		if until < 0 || until > days {
			continue
		}
		result = append(result, UpcomingEventResponse{
			EmployeeID:     emp.ID,
			FullName:       emp.FullName,
			DepartmentName: emp.DepartmentName,
			Date:           date.Format(dateLayout),
			DaysUntil:      until,
			Years:          years,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DaysUntil != result[j].DaysUntil {
			return result[i].DaysUntil < result[j].DaysUntil
		}
		return result[i].FullName < result[j].FullName
	})
	return result, nil
}

func (s *Service) StatisticsByDepartment(ctx context.Context) ([]DepartmentStatisticsResponse, error) {
	rows, err := s.repo.StatisticsByDepartment(ctx)
	if err != nil {
		s.logger.Error("failed to get department statistics", "error", err)
		return nil, err
	}
	result := make([]DepartmentStatisticsResponse, 0, len(rows))
	for _, row := range rows {
		name := unassignedDepartment
		if row.DepartmentName != nil {
			name = *row.DepartmentName
		}
		result = append(result, DepartmentStatisticsResponse{
			DepartmentID:    row.DepartmentID,
			DepartmentName:  name,
			TotalEmployees:  row.TotalEmployees,
			ActiveEmployees: row.ActiveEmployees,
		})
	}
	return result, nil
}

// Overview gathers the dashboard counters; the queries are independent and run concurrently.
func (s *Service) Overview(ctx context.Context) (*OverviewResponse, error) {
	var (
		byStatus    map[string]int64
		byGender    map[string]int64
		departments int64
		newHires    int64
	)

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = s.repo.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		byGender, err = s.repo.CountByGender(gctx)
		return err
	})
	g.Go(func() (err error) {
		departments, err = s.repo.CountDepartments(gctx)
		return err
	})
	g.Go(func() (err error) {
		newHires, err = s.repo.CountHiredSince(gctx, monthStart)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build employee overview", "error", err)
		return nil, err
	}

	overview := &OverviewResponse{
		ActiveEmployees:     byStatus[employeeDatamodel.StatusActive],
		InactiveEmployees:   byStatus[employeeDatamodel.StatusInactive],
		TerminatedEmployees: byStatus[employeeDatamodel.StatusTerminated],
		ResignedEmployees:   byStatus[employeeDatamodel.StatusResigned],
		TotalDepartments:    departments,
		NewHiresThisMonth:   newHires,
		ByGender:            byGender,
	}
	for _, n := range byStatus {
		overview.TotalEmployees += n
	}
	return overview, nil
}

// Now exposes the service clock to the handler for derived response fields.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) checkConstraints(ctx context.Context, emp *Employee, excludeID int64) error {
	if emp.DepartmentID != nil {
		exists, err := s.repo.DepartmentExists(ctx, *emp.DepartmentID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewValidationFieldError("departmentId", "Department does not exist", errors.ErrCodeDepartmentNotFound)
		}
	}
	if emp.Email != nil && *emp.Email != "" {
		taken, err := s.repo.EmailTaken(ctx, *emp.Email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return errors.NewConflictError("Employee with this email already exists", errors.ErrCodeDuplicateEmail)
		}
	}
	if emp.NationalID != nil && *emp.NationalID != "" {
		taken, err := s.repo.NationalIDTaken(ctx, *emp.NationalID, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return errors.NewConflictError("Employee with this national ID already exists", errors.ErrCodeDuplicateNationalID)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	database.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	})
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*email))
	return &v
}

func toPage(rows []*employeeDatamodel.EmployeeWithDepartment, total int64, p pagination.Params) *pagination.Page[*Employee] {
	items := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromJoinedDataModel(row))
	}
	return &pagination.Page[*Employee]{Items: items, Meta: pagination.NewMeta(p, total)}
}
