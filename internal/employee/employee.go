package employee

import (
	"strings"
	"time"
	"unicode"

	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
)

const dateLayout = "2006-01-02"

type Employee struct {
	ID               int64
	FullName         string
	DateOfBirth      *time.Time
	Gender           *string
	Email            *string
	Phone            *string
	Address          *string
	NationalID       *string
	DepartmentID     *int64
	DepartmentName   *string
	Position         *string
	HireDate         *time.Time
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e *Employee) IsActive() bool {
	return e.EmploymentStatus == employeeDatamodel.StatusActive
}

// Age is the number of completed years since the date of birth, or nil when unknown.
func (e *Employee) Age(now time.Time) *int {
	if e.DateOfBirth == nil {
		return nil
	}
	years := completedYears(*e.DateOfBirth, now)
	return &years
}

func (e *Employee) YearsOfService(now time.Time) *int {
	if e.HireDate == nil {
		return nil
	}
	years := completedYears(*e.HireDate, now)
	if years < 0 {
		years = 0
	}
	return &years
}

// Initials returns the upper-cased first letter of up to the first two name parts.
func (e *Employee) Initials() string {
	var b strings.Builder
	for i, part := range strings.Fields(e.FullName) {
		if i == 2 {
			break
		}
		b.WriteRune(unicode.ToUpper([]rune(part)[0]))
	}
	return b.String()
}

// NextBirthday is the next occurrence of the birthday on or after now's calendar date.
func (e *Employee) NextBirthday(now time.Time) *time.Time {
	if e.DateOfBirth == nil {
		return nil
	}
	next := nextOccurrence(*e.DateOfBirth, now)
	return &next
}

// NextAnniversary is the next hire-date anniversary strictly after the hire date itself.
func (e *Employee) NextAnniversary(now time.Time) *time.Time {
	if e.HireDate == nil {
		return nil
	}
	next := nextOccurrence(*e.HireDate, now)
	if next.Year() <= e.HireDate.Year() {
		next = anniversaryIn(*e.HireDate, e.HireDate.Year()+1, now.Location())
	}
	return &next
}

func completedYears(from, now time.Time) int {
	years := now.Year() - from.Year()
	if now.Month() < from.Month() || (now.Month() == from.Month() && now.Day() < from.Day()) {
		years--
	}
	return years
}

func nextOccurrence(d, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := anniversaryIn(d, now.Year(), now.Location())
	if next.Before(today) {
		next = anniversaryIn(d, now.Year()+1, now.Location())
	}
	return next
}

// anniversaryIn maps Feb 29 to Feb 28 in non-leap years.
func anniversaryIn(d time.Time, year int, loc *time.Location) time.Time {
	day := d.Day()
	if d.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, d.Month(), day, 0, 0, 0, 0, loc)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (e *Employee) ToResponse(now time.Time) EmployeeResponse {
	return EmployeeResponse{
		ID:               e.ID,
		FullName:         e.FullName,
		DateOfBirth:      formatDate(e.DateOfBirth),
		Gender:           e.Gender,
		Email:            e.Email,
		Phone:            e.Phone,
		Address:          e.Address,
		NationalID:       e.NationalID,
		DepartmentID:     e.DepartmentID,
		DepartmentName:   e.DepartmentName,
		Position:         e.Position,
		HireDate:         formatDate(e.HireDate),
		EmploymentStatus: e.EmploymentStatus,
		Age:              e.Age(now),
		YearsOfService:   e.YearsOfService(now),
		Initials:         e.Initials(),
		IsActive:         e.IsActive(),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:               e.ID,
		FullName:         e.FullName,
		DateOfBirth:      e.DateOfBirth,
		Gender:           e.Gender,
		Email:            e.Email,
		Phone:            e.Phone,
		Address:          e.Address,
		NationalID:       e.NationalID,
		DepartmentID:     e.DepartmentID,
		Position:         e.Position,
		HireDate:         e.HireDate,
		EmploymentStatus: e.EmploymentStatus,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:               e.ID,
		FullName:         e.FullName,
		DateOfBirth:      e.DateOfBirth,
		Gender:           e.Gender,
		Email:            e.Email,
		Phone:            e.Phone,
		Address:          e.Address,
		NationalID:       e.NationalID,
		DepartmentID:     e.DepartmentID,
		Position:         e.Position,
		HireDate:         e.HireDate,
		EmploymentStatus: e.EmploymentStatus,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func FromJoinedDataModel(e *employeeDatamodel.EmployeeWithDepartment) *Employee {
	emp := FromDataModel(&e.Employee)
	emp.DepartmentName = e.DepartmentName
	return emp
}
