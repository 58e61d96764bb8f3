package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

var _ = Describe("User Handler", func() {
	var (
		router chi.Router
		admin  *user.User
		other  *user.User
		caller string
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc := user.NewService(newMockUserRepository(), plainHasher{}, slogger)

		reg := validRegistration()
		reg.Role = user.RoleAdmin
		var err error
		admin, err = svc.Register(context.Background(), reg)
		Expect(err).NotTo(HaveOccurred())

		reg = validRegistration()
		reg.Email = "neha@globex.io"
		reg.Phone = "9000000009"
		reg.Organization = "Globex"
		other, err = svc.Register(context.Background(), reg)
		Expect(err).NotTo(HaveOccurred())

		handler := user.NewHandler(svc, user.NewAccess(svc))
		handler.BaseHandler = &transport.BaseHandler{Logger: slogger}

		caller = admin.ID
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := internal.ContextWithPrincipal(r.Context(), internal.Principal{UserID: caller})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Post("/users", handler.AddUser)
		router.Put("/users", handler.UpdateUser)
		router.Get("/users/{id}", handler.GetUser)
		router.Get("/users/organization/{organization}", handler.GetAllUsers)
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder, v interface{}) {
		Expect(json.NewDecoder(w.Body).Decode(v)).To(Succeed())
	}

	It("adds an employee to the admin's organization", func() {
		w := send(http.MethodPost, "/users", `{"id":"`+admin.ID+`","name":"Ravi","email":"ravi@acme.io","password":"pw","phone":9123456780,"department":"IT","designation":"Developer"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var msg map[string]string
		decode(w, &msg)
		Expect(msg).To(HaveKeyWithValue("message", "User added successfully!"))

		w = send(http.MethodGet, "/users/organization/Acme", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var users []map[string]interface{}
		decode(w, &users)
		Expect(users).To(HaveLen(1))
		Expect(users[0]).To(HaveKeyWithValue("name", "Ravi"))
		Expect(users[0]).To(HaveKeyWithValue("role", user.RoleEmployee))
		Expect(users[0]).NotTo(HaveKey("password"))
	})

	It("rejects a duplicate phone with 409", func() {
		w := send(http.MethodPost, "/users", `{"id":"`+admin.ID+`","name":"Ravi","email":"ravi@acme.io","password":"pw","phone":"9876543210","department":"IT","designation":"Developer"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("updates and reads back a user", func() {
		w := send(http.MethodPut, "/users", `{"id":"`+admin.ID+`","name":"Asha R"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = send(http.MethodGet, "/users/"+admin.ID, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var got map[string]interface{}
		decode(w, &got)
		Expect(got).To(HaveKeyWithValue("name", "Asha R"))
		Expect(got).To(HaveKeyWithValue("_id", admin.ID))
	})

	It("keeps approvers out of other organizations", func() {
		caller = other.ID
		Expect(send(http.MethodGet, "/users/"+admin.ID, "").Code).To(Equal(http.StatusForbidden))
		Expect(send(http.MethodGet, "/users/organization/Acme", "").Code).To(Equal(http.StatusForbidden))
		Expect(send(http.MethodPut, "/users", `{"id":"`+admin.ID+`","name":"Taken Over"}`).Code).To(Equal(http.StatusForbidden))
		w := send(http.MethodPost, "/users", `{"id":"`+admin.ID+`","name":"Ravi","email":"ravi@acme.io","password":"pw","phone":9123456780,"department":"IT","designation":"Developer"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		Expect(send(http.MethodGet, "/users/organization/Globex", "").Code).To(Equal(http.StatusOK))
	})

	It("lets employees see themselves but not move organizations", func() {
		Expect(send(http.MethodPost, "/users", `{"id":"`+admin.ID+`","name":"Ravi","email":"ravi@acme.io","password":"pw","phone":9123456780,"department":"IT","designation":"Developer"}`).Code).To(Equal(http.StatusOK))
		w := send(http.MethodGet, "/users/organization/Acme", "")
		var users []map[string]interface{}
		decode(w, &users)
		ravi := users[0]["_id"].(string)

		caller = ravi
		Expect(send(http.MethodGet, "/users/"+ravi, "").Code).To(Equal(http.StatusOK))
		Expect(send(http.MethodGet, "/users/"+admin.ID, "").Code).To(Equal(http.StatusForbidden))
		Expect(send(http.MethodPut, "/users", `{"id":"`+ravi+`","organization":"Globex"}`).Code).To(Equal(http.StatusForbidden))
		Expect(send(http.MethodPut, "/users", `{"id":"`+ravi+`","address":"Pune"}`).Code).To(Equal(http.StatusOK))
	})

	It("returns 404 for unknown users", func() {
		w := send(http.MethodGet, "/users/nope", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects an empty body", func() {
		w := send(http.MethodPut, "/users", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
