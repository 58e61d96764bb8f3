package mongodb_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	attendanceMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/mongodb"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

func TestAttendanceMongo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attendance MongoDB Suite")
}

var _ = Describe("Attendance MongoDB Repository", func() {
	var (
		ctx  context.Context
		db   *database.MongoDB
		repo *attendanceMongo.Repository
		uid  string
		base time.Time
	)

	BeforeEach(func() {
		uri := os.Getenv("MONGODB_TEST_URI")
		if uri == "" {
			Skip("MONGODB_TEST_URI not set")
		}
		ctx = context.Background()

		var err error
		db, err = database.NewMongoDB(ctx, uri, "ams_test_"+uuid.NewString()[:8], database.MongoOptions{})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = db.Database().Drop(context.Background())
			_ = db.Close(context.Background())
		})

		repo, err = attendanceMongo.NewRepository(ctx, db, 0)
		Expect(err).NotTo(HaveOccurred())
		uid = bson.NewObjectID().Hex()
		base = time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC)
	})

	record := func(day string, createdAt time.Time) *attendance.Record {
		return &attendance.Record{
			UserID:    uid,
			Day:       day,
			InTime:    "09:00",
			Status:    attendance.StatusPresent,
			CreatedAt: createdAt,
		}
	}

	It("inserts a day once", func() {
		created, err := repo.InsertIfAbsent(ctx, record("2024-03-09", base))
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		created, err = repo.InsertIfAbsent(ctx, record("2024-03-09", base.Add(time.Minute)))
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		got, err := repo.GetByUserDay(ctx, uid, "2024-03-09")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.CreatedAt).To(BeTemporally("==", base))
	})

	It("clocks out only once", func() {
		_, err := repo.InsertIfAbsent(ctx, record("2024-03-09", base))
		Expect(err).NotTo(HaveOccurred())

		got, err := repo.CompleteClockOut(ctx, uid, "2024-03-09", "17:30", "08:30")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.OutTime).To(Equal("17:30"))
		Expect(got.Duration).To(Equal("08:30"))

		_, err = repo.CompleteClockOut(ctx, uid, "2024-03-09", "18:00", "09:00")
		Expect(errors.Is(err, attendance.ErrNotFound)).To(BeTrue())
	})

	It("finds records within inclusive bounds in the requested order", func() {
		for i, day := range []string{"2024-03-09", "2024-03-10", "2024-03-11"} {
			_, err := repo.InsertIfAbsent(ctx, record(day, base.AddDate(0, 0, i)))
			Expect(err).NotTo(HaveOccurred())
		}

		got, err := repo.Find(ctx, attendance.Query{
			UserIDs: []string{uid},
			From:    base,
			To:      base.AddDate(0, 0, 1),
			Oldest:  true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].Day).To(Equal("2024-03-09"))
		Expect(got[1].Day).To(Equal("2024-03-10"))

		got, err = repo.Find(ctx, attendance.Query{UserIDs: []string{uid}})
		Expect(err).NotTo(HaveOccurred())
		Expect(got[0].Day).To(Equal("2024-03-11"))
	})

	It("patches only the given fields", func() {
		rec := record("2024-03-09", base)
		_, err := repo.InsertIfAbsent(ctx, rec)
		Expect(err).NotTo(HaveOccurred())

		status := "absent"
		Expect(repo.Update(ctx, rec.ID, attendance.Patch{Status: &status})).To(Succeed())

		got, err := repo.GetByID(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal("absent"))
		Expect(got.InTime).To(Equal("09:00"))
	})
})
