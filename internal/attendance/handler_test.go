package attendance_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	attendancePostgres "github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/postgres"
	attendanceDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/attendance"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

var _ = Describe("Attendance Handler Integration", func() {
	var (
		router  chi.Router
		adminID string
		ravi    string
		xadmin  string
		caller  string
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&attendanceDatamodel.Attendance{})).To(Succeed())

		adminID = uuid.NewString()
		ravi = uuid.NewString()
		xadmin = uuid.NewString()
		dir := &mockDirectory{users: map[string]*user.User{
			adminID: {ID: adminID, Name: "Asha", Role: user.RoleAdmin, Organization: "Acme", RollNo: 1},
			ravi:    {ID: ravi, Name: "Ravi", Role: user.RoleEmployee, Organization: "Acme", Phone: 9123456780, RollNo: 2},
			xadmin:  {ID: xadmin, Name: "Globex Admin", Role: user.RoleAdmin, Organization: "Globex", RollNo: 3},
		}}

		now := time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC)
		clock := timeclock.NewClock(time.UTC).WithNow(func() time.Time { return now })
		svc := attendance.NewService(attendancePostgres.NewAttendanceRepository(db, 0), dir, clock, nil, slogger)

		handler := attendance.NewHandler(svc, user.NewAccess(dir))
		handler.BaseHandler = &transport.BaseHandler{Logger: slogger}

		caller = adminID
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := internal.ContextWithPrincipal(r.Context(), internal.Principal{UserID: caller})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Post("/clock", handler.ClockInOut)
		router.Put("/attendence", handler.Update)
		router.Get("/attendence/today/{id}", handler.Today)
		router.Get("/attendence/{id}", handler.ListByUser)
		router.Get("/attendence/csv/{id}", handler.ExportOrganization)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	It("walks a day through clock in, clock out and the completed state", func() {
		w := do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"09:00"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)).To(HaveKeyWithValue("message", "Clocked in successfully"))

		w = do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"17:30"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)).To(HaveKeyWithValue("message", "Clocked out successfully"))

		w = do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"18:00"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		body := decode(w)
		Expect(body).To(HaveKeyWithValue("code", BeNumerically("==", http.StatusConflict)))
		Expect(body["message"]).To(ContainSubstring("already clocked in and out"))

		w = do(http.MethodGet, "/attendence/today/"+ravi, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		today := decode(w)
		Expect(today).To(HaveKeyWithValue("duration", "08:30"))
		Expect(today).To(HaveKey("_id"))
		Expect(today["user"]).To(HaveKeyWithValue("name", "Ravi"))
	})

	It("returns an empty object when there is no record today", func() {
		w := do(http.MethodGet, "/attendence/today/"+ravi, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("{}"))
	})

	It("returns an empty list for a user without history", func() {
		w := do(http.MethodGet, "/attendence/"+ravi, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
	})

	It("rejects an empty body", func() {
		w := do(http.MethodPost, "/clock", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w)).To(HaveKeyWithValue("message", "Invalid values.Please try again!"))
	})

	It("reports unknown users", func() {
		w := do(http.MethodPost, "/clock", `{"id":"`+uuid.NewString()+`","time":"09:00"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(decode(w)).To(HaveKeyWithValue("message", "User not found"))
	})

	It("serves the organization export as a download", func() {
		do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"09:00"}`)

		w := do(http.MethodGet, "/attendence/csv/"+adminID, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("text/csv"))
		Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="attendence.csv"`))

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[1]).To(Equal("3/9/2024,Ravi,9123456780,09:00,,,present"))
	})

	It("keeps employees to their own records", func() {
		caller = ravi
		Expect(do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"09:00"}`).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/attendence/"+ravi, "").Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/attendence/today/"+adminID, "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(decode(w)).To(HaveKeyWithValue("code", BeNumerically("==", http.StatusForbidden)))
		Expect(do(http.MethodPost, "/clock", `{"id":"`+adminID+`","time":"09:00"}`).Code).To(Equal(http.StatusForbidden))
	})

	It("keeps approvers inside their organization", func() {
		do(http.MethodPost, "/clock", `{"id":"`+ravi+`","time":"09:00"}`)
		w := do(http.MethodGet, "/attendence/"+ravi, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var views []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&views)).To(Succeed())
		Expect(views).To(HaveLen(1))
		recordID := views[0]["_id"].(string)

		caller = xadmin
		Expect(do(http.MethodGet, "/attendence/"+ravi, "").Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/attendence/csv/"+adminID, "").Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPut, "/attendence", `{"id":"`+recordID+`","status":"absent"}`).Code).To(Equal(http.StatusForbidden))

		caller = adminID
		Expect(do(http.MethodPut, "/attendence", `{"id":"`+recordID+`","status":"absent"}`).Code).To(Equal(http.StatusOK))
	})

	It("rejects unsupported export formats", func() {
		w := do(http.MethodGet, "/attendence/csv/"+adminID+"?format=pdf", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
