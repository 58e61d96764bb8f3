package leave_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const sickLeave = `{"leaveType":"Sick","leaveReason":"Fever","leaveFrom":"2024-03-11","leaveTo":"2024-03-12","id":"%s"}`

var _ = Describe("Leave Handler", func() {
	var (
		router chi.Router
		caller string
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dir := &mockDirectory{users: map[string]*user.User{
			"admin":  {ID: "admin", Name: "Asha", Role: user.RoleAdmin, Organization: "Acme"},
			"u1":     {ID: "u1", Name: "Ravi", Role: user.RoleEmployee, Organization: "Acme"},
			"u2":     {ID: "u2", Name: "Meera", Role: user.RoleEmployee, Organization: "Acme"},
			"xadmin": {ID: "xadmin", Name: "Globex Admin", Role: user.RoleAdmin, Organization: "Globex"},
		}}
		clock := timeclock.NewClock(time.UTC)
		svc := leave.NewService(newMockLeaveRepository(), dir, clock, nil, slogger)

		handler := leave.NewHandler(svc, user.NewAccess(dir))
		handler.BaseHandler = &transport.BaseHandler{Logger: slogger}

		caller = "admin"
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := internal.ContextWithPrincipal(r.Context(), internal.Principal{UserID: caller})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Post("/leave", handler.Submit)
		router.Put("/leave/decide", handler.Decide)
		router.Get("/leave/{id}", handler.List)
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	message := func(w *httptest.ResponseRecorder) string {
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body["message"].(string)
	}

	submitAs := func(id string) {
		caller = id
		w := send(http.MethodPost, "/leave", strings.Replace(sickLeave, "%s", id, 1))
		Expect(w.Code).To(Equal(http.StatusOK))
	}

	firstLeaveID := func() string {
		caller = "admin"
		w := send(http.MethodGet, "/leave/admin", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var views []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&views)).To(Succeed())
		Expect(views).NotTo(BeEmpty())
		return views[0]["_id"].(string)
	}

	It("submits, lists and decides a leave", func() {
		caller = "u1"
		w := send(http.MethodPost, "/leave", strings.Replace(sickLeave, "%s", "u1", 1))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(message(w)).To(Equal("Leave request submitted successfully!"))

		caller = "admin"
		w = send(http.MethodGet, "/leave/admin", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var views []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&views)).To(Succeed())
		Expect(views).To(HaveLen(1))
		Expect(views[0]).To(HaveKeyWithValue("leaveStatus", "Pending"))
		Expect(views[0]["leaveAppliedBy"]).To(HaveKeyWithValue("name", "Ravi"))
		id := views[0]["_id"].(string)

		w = send(http.MethodPut, "/leave/decide", `{"leaveId":"`+id+`","userId":"admin"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(message(w)).To(Equal("Leave approved successfully!"))

		w = send(http.MethodPut, "/leave/decide", `{"leaveId":"`+id+`","userId":"admin"}`)
		Expect(message(w)).To(Equal("Leave rejected successfully!"))
	})

	It("keeps callers to their own requests and organization", func() {
		submitAs("u1")

		Expect(send(http.MethodGet, "/leave/u1", "").Code).To(Equal(http.StatusOK))
		Expect(send(http.MethodGet, "/leave/admin", "").Code).To(Equal(http.StatusForbidden))
		w := send(http.MethodPost, "/leave", strings.Replace(sickLeave, "%s", "u2", 1))
		Expect(w.Code).To(Equal(http.StatusForbidden))

		caller = "xadmin"
		Expect(send(http.MethodGet, "/leave/u1", "").Code).To(Equal(http.StatusForbidden))
	})

	It("only lets the caller decide, inside its organization", func() {
		submitAs("u1")
		id := firstLeaveID()

		w := send(http.MethodPut, "/leave/decide", `{"leaveId":"`+id+`","userId":"forged-user"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		caller = "xadmin"
		w = send(http.MethodPut, "/leave/decide", `{"leaveId":"`+id+`","userId":"xadmin"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		caller = "admin"
		w = send(http.MethodGet, "/leave/admin", "")
		var views []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&views)).To(Succeed())
		Expect(views[0]).To(HaveKeyWithValue("leaveStatus", "Pending"))
	})

	It("returns the first missing field as a 400", func() {
		w := send(http.MethodPost, "/leave", `{"leaveReason":"Fever"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(message(w)).To(Equal("Leave Type is required"))
	})

	It("returns 404 for unknown leaves", func() {
		w := send(http.MethodPut, "/leave/decide", `{"leaveId":"nope","userId":"admin"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(message(w)).To(Equal("Leave not found"))
	})
})
