package attendance_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-management/internal/attendance"
)

var wib = time.FixedZone("WIB", 7*60*60)

func at(hour, minute, second int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, second, 0, wib)
}

var _ = Describe("Attendance rules", func() {
	DescribeTable("late check-in",
		func(t time.Time, late bool) {
			Expect(attendance.IsLateAt(t)).To(Equal(late))
		},
		Entry("early morning", at(7, 55, 0), false),
		Entry("exactly at the cutoff", at(8, 30, 0), false),
		Entry("one second after", at(8, 30, 1), true),
		Entry("afternoon", at(13, 0, 0), true),
	)

	DescribeTable("early leave",
		func(t time.Time, early bool) {
			Expect(attendance.IsEarlyLeaveAt(t)).To(Equal(early))
		},
		Entry("one second before", at(17, 29, 59), true),
		Entry("exactly at the cutoff", at(17, 30, 0), false),
		Entry("evening", at(19, 0, 0), false),
	)

	It("computes total hours from the timestamps", func() {
		Expect(attendance.HoursBetween(at(8, 0, 0), at(17, 15, 0))).To(BeNumerically("~", 9.25, 1e-9))
	})

	It("truncates to the calendar day", func() {
		Expect(attendance.DateOf(at(23, 59, 59))).To(Equal(time.Date(2025, time.March, 10, 0, 0, 0, 0, wib)))
	})

	Describe("Recompute", func() {
		It("derives flags and hours from both timestamps", func() {
			in, out := at(9, 0, 0), at(16, 0, 0)
			a := &attendance.Attendance{CheckIn: &in, CheckOut: &out}
			a.Recompute(wib)

			Expect(a.IsLate).To(BeTrue())
			Expect(a.IsEarlyLeave).To(BeTrue())
			Expect(*a.TotalHours).To(BeNumerically("~", 7.0, 1e-9))
			Expect(a.Status()).To(Equal(attendance.StatusCompleted))
		})

		It("evaluates cutoffs in the given zone", func() {
			in := at(8, 0, 0).UTC()
			a := &attendance.Attendance{CheckIn: &in}
			a.Recompute(wib)

			Expect(a.IsLate).To(BeFalse())
			Expect(a.TotalHours).To(BeNil())
			Expect(a.Status()).To(Equal(attendance.StatusCheckedIn))
		})

		It("clears everything without timestamps", func() {
			h := 3.0
			a := &attendance.Attendance{IsLate: true, IsEarlyLeave: true, TotalHours: &h}
			a.Recompute(wib)

			Expect(a.IsLate).To(BeFalse())
			Expect(a.IsEarlyLeave).To(BeFalse())
			Expect(a.TotalHours).To(BeNil())
			Expect(a.Status()).To(Equal(attendance.StatusAbsent))
		})
	})

	It("renders the date without a time part", func() {
		a := &attendance.Attendance{Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)}
		Expect(a.ToResponse().Date).To(Equal("2025-03-10"))
	})
})
