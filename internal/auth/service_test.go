package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock user directory for testing
type mockUserDirectory struct {
	users map[int64]*user.User
}

func newMockUserDirectory(hasher *BcryptHasher) *mockUserDirectory {
	hash, _ := hasher.Hash("correct_password")
	return &mockUserDirectory{
		users: map[int64]*user.User{
			9876543210: {ID: "u1", Name: "Asha", Role: user.RoleAdmin, Phone: 9876543210, PasswordHash: hash},
			9123456780: {ID: "u2", Name: "Ravi", Role: user.RoleEmployee, Phone: 9123456780, PasswordHash: hash},
		},
	}
}

func (m *mockUserDirectory) Register(_ context.Context, dto user.RegisterDTO) (*user.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone, _ := dto.Phone.Int64()
	if _, ok := m.users[phone]; ok {
		return nil, internal.ErrPhoneTaken
	}
	u := &user.User{ID: "new", Name: dto.Name, Role: user.RoleAdmin, Phone: phone, RollNo: 3}
	m.users[phone] = u
	return u, nil
}

func (m *mockUserDirectory) GetByPhone(_ context.Context, phone int64) (*user.User, error) {
	if u, ok := m.users[phone]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserDirectory) SetPassword(_ context.Context, phone int64, password string) (*user.User, error) {
	u, ok := m.users[phone]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	u.PasswordHash = "reset:" + password
	return u, nil
}

func messageOf(err error) string {
	appErr, ok := internal.IsAppError(err)
	gomega.Expect(ok).To(gomega.BeTrue())
	return appErr.GetDetailedMessage()
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		ctx      context.Context
		service  *Service
		users    *mockUserDirectory
		hasher   *BcryptHasher
		tokenGen *JWTTokenGenerator
		secret   = "test-secret-with-enough-bytes"
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		hasher = NewBcryptHasher(bcrypt.MinCost)
		users = newMockUserDirectory(hasher)
		tokenGen = NewJWTTokenGenerator(secret, time.Hour)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(users, tokenGen, hasher, logger)
	})

	ginkgo.Describe("Signin", func() {
		ginkgo.It("returns the user and a token carrying id and role", func() {
			resp, err := service.Signin(ctx, SigninDTO{Phone: "9876543210", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.ID).To(gomega.Equal("u1"))
			gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())

			claims, err := service.ValidateAccessToken(resp.Token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("u1"))
			gomega.Expect(claims.Role).To(gomega.Equal(user.RoleAdmin))
		})

		ginkgo.It("serializes the user fields next to the token", func() {
			resp, err := service.Signin(ctx, SigninDTO{Phone: "9123456780", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			raw, err := json.Marshal(resp)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			var body map[string]interface{}
			gomega.Expect(json.Unmarshal(raw, &body)).To(gomega.Succeed())
			gomega.Expect(body).To(gomega.HaveKeyWithValue("_id", "u2"))
			gomega.Expect(body).To(gomega.HaveKeyWithValue("role", user.RoleEmployee))
			gomega.Expect(body).To(gomega.HaveKey("token"))
			gomega.Expect(body).ToNot(gomega.HaveKey("password"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Signin(ctx, SigninDTO{Phone: "9876543210", Password: "nope"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
			gomega.Expect(messageOf(err)).To(gomega.Equal("Invalid credentials"))
		})

		ginkgo.It("reports unknown phones", func() {
			_, err := service.Signin(ctx, SigninDTO{Phone: "9000000000", Password: "x"})
			gomega.Expect(messageOf(err)).To(gomega.Equal("User not found"))
		})

		ginkgo.DescribeTable("validates the request in order",
			func(dto SigninDTO, message string) {
				_, err := service.Signin(ctx, dto)
				gomega.Expect(messageOf(err)).To(gomega.Equal(message))
			},
			ginkgo.Entry("missing phone", SigninDTO{Password: "x"}, "Phone is required."),
			ginkgo.Entry("short phone", SigninDTO{Phone: "12345", Password: "x"}, "Invalid phone number."),
			ginkgo.Entry("missing password", SigninDTO{Phone: "9876543210"}, "Password is required."),
		)
	})

	ginkgo.Describe("Signup", func() {
		ginkgo.It("registers and returns a token", func() {
			resp, err := service.Signup(ctx, user.RegisterDTO{
				Name: "New", Email: "new@acme.io", Password: "pw", Phone: "9988776655",
				Department: "IT", Designation: "Manager", Organization: "NewCo",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.RollNo).To(gomega.Equal(int64(3)))
			gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("passes conflicts through", func() {
			_, err := service.Signup(ctx, user.RegisterDTO{
				Name: "Dup", Email: "dup@acme.io", Password: "pw", Phone: "9876543210",
				Department: "IT", Designation: "Manager", Organization: "DupCo",
			})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrPhoneTaken))
		})
	})

	ginkgo.Describe("ResetPassword", func() {
		ginkgo.It("requires matching confirmation", func() {
			_, err := service.ResetPassword(ctx, ResetPasswordDTO{Phone: "9876543210", Password: "a"})
			gomega.Expect(messageOf(err)).To(gomega.Equal("Confirm Password is required."))

			_, err = service.ResetPassword(ctx, ResetPasswordDTO{Phone: "9876543210", Password: "a", ConfirmPassword: "b"})
			gomega.Expect(messageOf(err)).To(gomega.Equal("Password and Confirm Password must be same."))
		})

		ginkgo.It("stores the new password", func() {
			u, err := service.ResetPassword(ctx, ResetPasswordDTO{Phone: "9876543210", Password: "a", ConfirmPassword: "a"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.PasswordHash).To(gomega.Equal("reset:a"))
		})

		ginkgo.It("rejects passwords longer than bcrypt accepts", func() {
			long := strings.Repeat("a", user.MaxPasswordLength+1)
			_, err := service.ResetPassword(ctx, ResetPasswordDTO{Phone: "9876543210", Password: long, ConfirmPassword: long})
			gomega.Expect(err).To(gomega.MatchError(user.ErrPasswordTooLong))
			gomega.Expect(messageOf(err)).To(gomega.Equal("Password must not exceed 72 characters"))

			_, err = NewBcryptHasher(bcrypt.MinCost).Hash(long)
			gomega.Expect(err).To(gomega.MatchError(bcrypt.ErrPasswordTooLong))
		})

		ginkgo.It("fails for unknown phones", func() {
			_, err := service.ResetPassword(ctx, ResetPasswordDTO{Phone: "9000000000", Password: "a", ConfirmPassword: "a"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})

	ginkgo.Describe("Token validation", func() {
		ginkgo.It("rejects tokens signed with another secret", func() {
			other := NewJWTTokenGenerator("another-secret-with-bytes", time.Hour)
			token, err := other.GenerateToken("u1", user.RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("reports expired tokens", func() {
			tokenGen.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
			token, err := tokenGen.GenerateToken("u1", user.RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			tokenGen.now = time.Now

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("rejects tokens signed with another algorithm", func() {
			token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
			raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(raw)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("accepts HS256 only among HMAC algorithms", func() {
			for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
				raw, err := jwt.NewWithClaims(method, &Claims{UserID: "u1", Role: user.RoleAdmin}).SignedString([]byte(secret))
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				_, err = service.ValidateAccessToken(raw)
				gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken), method.Alg())
			}
		})

		ginkgo.It("defaults to a fifty day lifetime", func() {
			gen := NewJWTTokenGenerator(secret, 0)
			gomega.Expect(gen.TTL).To(gomega.Equal(50 * 24 * time.Hour))
		})
	})
})

var _ = ginkgo.Describe("Auth HTTP", func() {
	var (
		handler *Handler
		rbac    *RBACAuthorization
		tokens  *JWTTokenGenerator
		reached *internal.Principal
	)

	ginkgo.BeforeEach(func() {
		hasher := NewBcryptHasher(bcrypt.MinCost)
		tokens = NewJWTTokenGenerator("test-secret-with-enough-bytes", time.Hour)
		handler = NewHandler(NewService(newMockUserDirectory(hasher), tokens, hasher, nil))
		rbac = NewRBACAuthorization(nil)
		reached = nil
	})

	protected := func() http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := internal.PrincipalFromContext(r.Context())
			reached = &p
			w.WriteHeader(http.StatusNoContent)
		})
	}

	request := func(h http.Handler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	ginkgo.It("puts the principal on the context", func() {
		token, _ := tokens.GenerateToken("u2", user.RoleEmployee)
		w := request(handler.AuthMiddleware(protected()), token)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(reached).ToNot(gomega.BeNil())
		gomega.Expect(reached.UserID).To(gomega.Equal("u2"))
		gomega.Expect(reached.Role).To(gomega.Equal(user.RoleEmployee))
	})

	ginkgo.It("rejects missing and bad tokens", func() {
		w := request(handler.AuthMiddleware(protected()), "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))

		w = request(handler.AuthMiddleware(protected()), "garbage")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(reached).To(gomega.BeNil())
	})

	ginkgo.It("lets only admins through admin routes", func() {
		chain := handler.AuthMiddleware(rbac.RequireAdmin()(protected()))

		employee, _ := tokens.GenerateToken("u2", user.RoleEmployee)
		w := request(chain, employee)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))

		admin, _ := tokens.GenerateToken("u1", user.RoleAdmin)
		w = request(chain, admin)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("answers signin with the error body shape", func() {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{"phone":"9876543210","password":"bad"}`))
		w := httptest.NewRecorder()
		handler.Signin(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		var body map[string]interface{}
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveKeyWithValue("message", "Invalid credentials"))
		gomega.Expect(body).To(gomega.HaveKeyWithValue("code", float64(http.StatusUnauthorized)))
	})

	ginkgo.It("rejects an empty signin body", func() {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		handler.Signin(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("Invalid values.Please try again!"))
	})

	ginkgo.It("accepts a numeric phone on signin", func() {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{"phone":9876543210,"password":"correct_password"}`))
		w := httptest.NewRecorder()
		handler.Signin(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(`"token"`))
	})
})
