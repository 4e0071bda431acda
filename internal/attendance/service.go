package attendance

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/hr-management/internal"
	attendanceDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/attendance"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/core/validation"
	"github.com/frahmantamala/hr-management/internal/database"
)

type RepositoryAPI interface {
	GetByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (*attendanceDatamodel.AttendanceWithEmployee, error)
	UpsertCheckIn(ctx context.Context, a *attendanceDatamodel.Attendance) error
	CheckOut(ctx context.Context, a *attendanceDatamodel.Attendance) error
	List(ctx context.Context, filter ListFilter, p pagination.Params) ([]*attendanceDatamodel.AttendanceWithEmployee, int64, error)
	GetByID(ctx context.Context, id int64) (*attendanceDatamodel.AttendanceWithEmployee, error)
	Create(ctx context.Context, a *attendanceDatamodel.Attendance) error
	Update(ctx context.Context, a *attendanceDatamodel.Attendance) error
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, filter ListFilter) (*attendanceDatamodel.Summary, error)
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
	ExistsForDate(ctx context.Context, employeeID int64, date time.Time, excludeID int64) (bool, error)
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

// WithClock replaces the time source. The clock's location decides what "today" and the cutoffs mean.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckIn opens today's record for the employee. A row that already has a check-in is refused.
func (s *Service) CheckIn(ctx context.Context, employeeID int64, dto ClockDTO) (*Attendance, error) {
	now := s.now()
	today := DateOf(now)

	var result *Attendance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByEmployeeAndDate(ctx, employeeID, today)
		if err != nil && !errors.IsCode(err, errors.ErrCodeAttendanceNotFound) {
			return err
		}
		if existing != nil && existing.CheckIn != nil {
			return errors.ErrAlreadyCheckedIn
		}

		row := &attendanceDatamodel.Attendance{
			EmployeeID:      employeeID,
			Date:            today,
			CheckIn:         &now,
			CheckInLocation: dto.Location,
			IsLate:          IsLateAt(now),
			Notes:           dto.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.UpsertCheckIn(ctx, row); err != nil {
			return err
		}

		saved, err := s.repo.GetByID(ctx, row.ID)
		if err != nil {
			return err
		}
		result = FromDataModel(saved)
		return nil
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to check in", "error", err, "employee_id", employeeID)
		}
		return nil, err
	}

	s.logger.Info("employee checked in", "employee_id", employeeID, "attendance_id", result.ID, "is_late", result.IsLate)
	s.publish(ctx, events.NewCheckedInEvent(result.ID, employeeID, result.IsLate, now))
	return result, nil
}

// CheckOut closes today's record. An existing note is kept; the supplied one only fills a gap.
func (s *Service) CheckOut(ctx context.Context, employeeID int64, dto ClockDTO) (*Attendance, error) {
	now := s.now()
	today := DateOf(now)

	var result *Attendance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByEmployeeAndDate(ctx, employeeID, today)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeAttendanceNotFound) {
				return errors.ErrMustCheckInFirst
			}
			return err
		}
		if existing.CheckIn == nil {
			return errors.ErrMustCheckInFirst
		}
		if existing.CheckOut != nil {
			return errors.ErrAlreadyCheckedOut
		}

		row := existing.Attendance
		row.CheckOut = &now
		row.CheckOutLocation = dto.Location
		row.IsEarlyLeave = IsEarlyLeaveAt(now)
		hours := HoursBetween(*row.CheckIn, now)
		row.TotalHours = &hours
		if row.Notes == nil {
			row.Notes = dto.Notes
		}
		row.UpdatedAt = now

		if err := s.repo.CheckOut(ctx, &row); err != nil {
			return err
		}

		saved, err := s.repo.GetByID(ctx, row.ID)
		if err != nil {
			return err
		}
		result = FromDataModel(saved)
		return nil
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to check out", "error", err, "employee_id", employeeID)
		}
		return nil, err
	}

	s.logger.Info("employee checked out", "employee_id", employeeID, "attendance_id", result.ID, "is_early_leave", result.IsEarlyLeave)
	s.publish(ctx, events.NewCheckedOutEvent(result.ID, employeeID, result.IsEarlyLeave, now))
	return result, nil
}

// Today returns the caller's record for the current date, or nil when there is none.
func (s *Service) Today(ctx context.Context, employeeID int64) (*Attendance, error) {
	row, err := s.repo.GetByEmployeeAndDate(ctx, employeeID, DateOf(s.now()))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeAttendanceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) ListMine(ctx context.Context, employeeID int64, filter ListFilter, p pagination.Params) (*pagination.Page[*Attendance], error) {
	filter.EmployeeID = &employeeID
	return s.List(ctx, filter, p)
}

func (s *Service) List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[*Attendance], error) {
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		s.logger.Error("failed to list attendance", "error", err)
		return nil, err
	}
	items := make([]*Attendance, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return &pagination.Page[*Attendance]{Items: items, Meta: pagination.NewMeta(p, total)}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Attendance, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Create is the admin path; it bypasses the check-in state machine.
func (s *Service) Create(ctx context.Context, dto *CreateAttendanceDTO) (*Attendance, error) {
	date, appErr := validation.ParseDate("date", &dto.Date)
	if appErr != nil {
		return nil, appErr
	}

	exists, err := s.repo.EmployeeExists(ctx, dto.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewValidationFieldError("employeeId", "Employee does not exist", errors.ErrCodeEmployeeNotFound)
	}
	if err := s.ensureNoDuplicate(ctx, dto.EmployeeID, *date, 0); err != nil {
		return nil, err
	}

	now := s.now()
	a := &Attendance{
		EmployeeID:       dto.EmployeeID,
		Date:             *date,
		CheckIn:          dto.CheckIn,
		CheckOut:         dto.CheckOut,
		CheckInLocation:  dto.CheckInLocation,
		CheckOutLocation: dto.CheckOutLocation,
		Notes:            dto.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	a.Recompute(now.Location())

	row := ToDataModel(a)
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, duplicateAttendance()
		}
		s.logger.Error("failed to create attendance", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	s.logger.Info("attendance created", "attendance_id", row.ID, "employee_id", row.EmployeeID)
	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateAttendanceDTO) (*Attendance, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Date != nil {
		date, appErr := validation.ParseDate("date", dto.Date)
		if appErr != nil {
			return nil, appErr
		}
		if date.Format(dateLayout) != current.Date.Format(dateLayout) {
			if err := s.ensureNoDuplicate(ctx, current.EmployeeID, *date, id); err != nil {
				return nil, err
			}
		}
		current.Date = *date
	}
	if dto.CheckIn != nil {
		current.CheckIn = dto.CheckIn
	}
	if dto.CheckOut != nil {
		current.CheckOut = dto.CheckOut
	}
	if dto.CheckInLocation != nil {
		current.CheckInLocation = dto.CheckInLocation
	}
	if dto.CheckOutLocation != nil {
		current.CheckOutLocation = dto.CheckOutLocation
	}
	if dto.Notes != nil {
		current.Notes = dto.Notes
	}

	now := s.now()
	current.Recompute(now.Location())
	current.UpdatedAt = now

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, duplicateAttendance()
		}
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to update attendance", "error", err, "attendance_id", id)
		}
		return nil, err
	}

	s.logger.Info("attendance updated", "attendance_id", id)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			s.logger.Error("failed to delete attendance", "error", err, "attendance_id", id)
		}
		return err
	}
	s.logger.Info("attendance deleted", "attendance_id", id)
	return nil
}

// Summary aggregates over the filter. Callers with the employee role only ever see their own rows.
func (s *Service) Summary(ctx context.Context, actor *errors.Identity, filter ListFilter) (*SummaryResponse, error) {
	if actor != nil && actor.Role == userDatamodel.RoleEmployee {
		if actor.EmployeeID == nil {
			return nil, errors.ErrNoEmployeeProfile
		}
		filter.EmployeeID = actor.EmployeeID
	}
	if err := checkRange(filter); err != nil {
		return nil, err
	}

	row, err := s.repo.Summary(ctx, filter)
	if err != nil {
		s.logger.Error("failed to summarize attendance", "error", err)
		return nil, err
	}

	resp := &SummaryResponse{
		TotalRecords:   row.TotalRecords,
		PresentDays:    row.PresentDays,
		LateDays:       row.LateDays,
		EarlyLeaveDays: row.EarlyLeaveDays,
		OnTimeDays:     row.PresentDays - row.LateDays,
	}
	if row.AverageHours != nil {
		resp.AverageHours = roundHours(*row.AverageHours)
	}
	return resp, nil
}

func (s *Service) ensureNoDuplicate(ctx context.Context, employeeID int64, date time.Time, excludeID int64) error {
	taken, err := s.repo.ExistsForDate(ctx, employeeID, date, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateAttendance()
	}
	return nil
}

func duplicateAttendance() error {
	return errors.NewConflictError("Attendance record already exists for this employee and date", errors.ErrCodeDuplicateAttendance)
}

func checkRange(f ListFilter) error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return errors.NewValidationFieldError("endDate", "endDate must not be before startDate", errors.ErrCodeInvalidDate)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
