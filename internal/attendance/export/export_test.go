package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/export"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attendance Export Suite")
}

var _ = Describe("Attendance export", func() {
	var (
		loc  *time.Location
		rows []export.Row
	)

	BeforeEach(func() {
		loc = time.FixedZone("IST", 5*3600+1800)
		rows = []export.Row{
			{
				Date:     time.Date(2024, 3, 9, 4, 0, 0, 0, time.UTC),
				Employee: "Ravi",
				Phone:    "9123456780",
				InTime:   "09:00",
				OutTime:  "17:30",
				Duration: "08:30",
				Status:   "present",
			},
			{
				Date:     time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC),
				Employee: export.NotAvailable,
				Phone:    export.NotAvailable,
				InTime:   "10:00",
				Status:   "present",
			},
		}
	})

	It("writes a header and one line per row", func() {
		var buf bytes.Buffer
		Expect(export.WriteCSV(&buf, rows, loc)).To(Succeed())

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal(export.Header))
		Expect(records[1]).To(Equal([]string{"3/9/2024", "Ravi", "9123456780", "09:00", "17:30", "08:30", "present"}))
	})

	It("renders dates in the configured zone and N/A for missing users", func() {
		var buf bytes.Buffer
		Expect(export.WriteCSV(&buf, rows, loc)).To(Succeed())

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records[2][0]).To(Equal("3/11/2024"))
		Expect(records[2][1]).To(Equal("N/A"))
		Expect(records[2][2]).To(Equal("N/A"))
		Expect(records[2][4]).To(BeEmpty())
	})

	It("writes only the header for no rows", func() {
		var buf bytes.Buffer
		Expect(export.WriteCSV(&buf, nil, loc)).To(Succeed())
		Expect(buf.String()).To(Equal("DATE,EMPLOYEE,PHONE,IN TIME,OUT TIME,DURATION,STATUS\n"))
	})

	It("builds an xlsx workbook with the same table", func() {
		file, err := export.Render(export.FormatXLSX, "attendence", rows, loc)
		Expect(err).NotTo(HaveOccurred())
		Expect(file.Name).To(Equal("attendence.xlsx"))

		book, err := excelize.OpenReader(bytes.NewReader(file.Body))
		Expect(err).NotTo(HaveOccurred())
		defer book.Close()

		sheetRows, err := book.GetRows("Attendence")
		Expect(err).NotTo(HaveOccurred())
		Expect(sheetRows).To(HaveLen(3))
		Expect(sheetRows[0]).To(Equal(export.Header))
		Expect(sheetRows[1][1]).To(Equal("Ravi"))
	})

	It("names csv downloads and rejects unknown formats", func() {
		file, err := export.Render(export.FormatCSV, "attendenceMonthWise", rows, loc)
		Expect(err).NotTo(HaveOccurred())
		Expect(file.Name).To(Equal("attendenceMonthWise.csv"))
		Expect(file.ContentType).To(Equal("text/csv"))

		f, err := export.ParseFormat("")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(export.FormatCSV))

		_, err = export.ParseFormat("pdf")
		Expect(err).To(HaveOccurred())
	})
})
