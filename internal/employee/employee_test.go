package employee_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-management/internal/employee"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var _ = Describe("Employee", func() {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	DescribeTable("Age counts completed years",
		func(dob *time.Time, expected int) {
			e := &employee.Employee{DateOfBirth: dob}
			Expect(*e.Age(now)).To(Equal(expected))
		},
		Entry("birthday already passed", date(1990, 1, 5), 35),
		Entry("birthday today", date(1990, 3, 10), 35),
		Entry("birthday tomorrow", date(1990, 3, 11), 34),
	)

	It("leaves age and service unknown without dates", func() {
		e := &employee.Employee{}
		Expect(e.Age(now)).To(BeNil())
		Expect(e.YearsOfService(now)).To(BeNil())
		Expect(e.NextBirthday(now)).To(BeNil())
		Expect(e.NextAnniversary(now)).To(BeNil())
	})

	It("never reports negative years of service", func() {
		e := &employee.Employee{HireDate: date(2025, 6, 1)}
		Expect(*e.YearsOfService(now)).To(Equal(0))
	})

	DescribeTable("Initials",
		func(name, expected string) {
			Expect((&employee.Employee{FullName: name}).Initials()).To(Equal(expected))
		},
		Entry("two parts", "budi santoso", "BS"),
		Entry("three parts use the first two", "Ni Made Ayu", "NM"),
		Entry("single name", "Sukarno", "S"),
		Entry("extra spaces", "  ayu   lestari ", "AL"),
	)

	Describe("NextBirthday", func() {
		It("is today when the birthday is today", func() {
			e := &employee.Employee{DateOfBirth: date(1990, 3, 10)}
			Expect(e.NextBirthday(now).Format("2006-01-02")).To(Equal("2025-03-10"))
		})

		It("rolls to next year once passed", func() {
			e := &employee.Employee{DateOfBirth: date(1990, 3, 9)}
			Expect(e.NextBirthday(now).Format("2006-01-02")).To(Equal("2026-03-09"))
		})

		It("maps Feb 29 to Feb 28 in common years", func() {
			e := &employee.Employee{DateOfBirth: date(1992, 2, 29)}
			feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
			Expect(e.NextBirthday(feb).Format("2006-01-02")).To(Equal("2025-02-28"))
		})
	})

	Describe("NextAnniversary", func() {
		It("skips the hire date itself", func() {
			e := &employee.Employee{HireDate: date(2025, 3, 15)}
			Expect(e.NextAnniversary(now).Format("2006-01-02")).To(Equal("2026-03-15"))
		})

		It("is this year's date when still ahead", func() {
			e := &employee.Employee{HireDate: date(2019, 4, 1)}
			Expect(e.NextAnniversary(now).Format("2006-01-02")).To(Equal("2025-04-01"))
		})
	})

	It("renders dates and derived fields in the response", func() {
		email := "budi@example.com"
		e := &employee.Employee{
			ID:               1,
			FullName:         "Budi Santoso",
			DateOfBirth:      date(1990, 5, 20),
			HireDate:         date(2020, 1, 2),
			Email:            &email,
			EmploymentStatus: "active",
		}
		resp := e.ToResponse(now)
		Expect(*resp.DateOfBirth).To(Equal("1990-05-20"))
		Expect(*resp.HireDate).To(Equal("2020-01-02"))
		Expect(*resp.Age).To(Equal(34))
		Expect(*resp.YearsOfService).To(Equal(5))
		Expect(resp.Initials).To(Equal("BS"))
		Expect(resp.IsActive).To(BeTrue())
	})
})
