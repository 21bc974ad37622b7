package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/authkit/authkit/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	loginResult  auth.LoginResult
	loginErr     error
	mfaTokens    auth.AuthTokens
	mfaErr       error
	refreshed    auth.AuthTokens
	refreshErr   error
	claims       *auth.Claims
	validateErr  error
	user         *auth.User
	userErr      error
	lastLoginDTO auth.LoginDTO
}

func (s *stubService) Authenticate(ctx context.Context, dto auth.LoginDTO) (auth.LoginResult, error) {
	s.lastLoginDTO = dto
	return s.loginResult, s.loginErr
}

func (s *stubService) CompleteMFA(ctx context.Context, dto auth.VerifyMFADTO) (auth.AuthTokens, error) {
	return s.mfaTokens, s.mfaErr
}

func (s *stubService) RefreshTokens(ctx context.Context, refreshToken string) (auth.AuthTokens, error) {
	return s.refreshed, s.refreshErr
}

func (s *stubService) ValidateAccessToken(tokenString string) (*auth.Claims, error) {
	return s.claims, s.validateErr
}

func (s *stubService) GetUserWithAccess(ctx context.Context, userID string) (*auth.User, error) {
	return s.user, s.userErr
}

func postJSON(path string, body interface{}) *http.Request {
	raw, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Auth Handler", func() {
	var (
		service *stubService
		handler *auth.Handler
	)

	BeforeEach(func() {
		service = &stubService{}
		handler = auth.NewHandler(service)
	})

	Describe("Login", func() {
		It("should return the token pair on success", func() {
			service.loginResult = auth.LoginResult{
				Tokens: auth.AuthTokens{AccessToken: "access", RefreshToken: "refresh"},
			}

			w := httptest.NewRecorder()
			handler.Login(w, postJSON("/auth/login", auth.LoginDTO{Username: "alice", Password: "pw"}))

			Expect(w.Code).To(Equal(http.StatusOK))
			var tokens auth.AuthTokens
			Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
			Expect(tokens.AccessToken).To(Equal("access"))
			Expect(service.lastLoginDTO.Username).To(Equal("alice"))
		})

		It("should answer 202 with the mfa token when a second factor is pending", func() {
			service.loginResult = auth.LoginResult{MFARequired: true, MFAToken: "mfa-token"}

			w := httptest.NewRecorder()
			handler.Login(w, postJSON("/auth/login", auth.LoginDTO{Username: "alice", Password: "pw"}))

			Expect(w.Code).To(Equal(http.StatusAccepted))
			var body map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("mfa_required", true))
			Expect(body).To(HaveKeyWithValue("mfa_token", "mfa-token"))
		})

		It("should answer 401 on bad credentials", func() {
			service.loginErr = auth.ErrInvalidCredentials

			w := httptest.NewRecorder()
			handler.Login(w, postJSON("/auth/login", auth.LoginDTO{Username: "alice", Password: "wrong"}))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should answer 401 for inactive users", func() {
			service.loginErr = auth.ErrUserInactive

			w := httptest.NewRecorder()
			handler.Login(w, postJSON("/auth/login", auth.LoginDTO{Username: "mallet", Password: "pw"}))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should answer 400 on validation failures", func() {
			service.loginErr = auth.ValidationError{Msg: "username is required"}

			w := httptest.NewRecorder()
			handler.Login(w, postJSON("/auth/login", auth.LoginDTO{}))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 400 on a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("VerifyMFA", func() {
		It("should return the token pair on a correct code", func() {
			service.mfaTokens = auth.AuthTokens{AccessToken: "access", RefreshToken: "refresh"}

			w := httptest.NewRecorder()
			handler.VerifyMFA(w, postJSON("/auth/verify", auth.VerifyMFADTO{MFAToken: "mfa-token", Code: "123456"}))

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should answer 401 on a wrong code", func() {
			service.mfaErr = auth.ErrMFAFailed

			w := httptest.NewRecorder()
			handler.VerifyMFA(w, postJSON("/auth/verify", auth.VerifyMFADTO{MFAToken: "mfa-token", Code: "000000"}))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should answer 401 on an expired mfa token", func() {
			service.mfaErr = auth.ErrTokenExpired

			w := httptest.NewRecorder()
			handler.VerifyMFA(w, postJSON("/auth/verify", auth.VerifyMFADTO{MFAToken: "stale", Code: "123456"}))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RefreshToken", func() {
		It("should rotate the pair", func() {
			service.refreshed = auth.AuthTokens{AccessToken: "new-access", RefreshToken: "new-refresh"}

			w := httptest.NewRecorder()
			handler.RefreshToken(w, postJSON("/auth/refresh", auth.RefreshTokenDTO{RefreshToken: "refresh"}))

			Expect(w.Code).To(Equal(http.StatusOK))
			var tokens auth.AuthTokens
			Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
			Expect(tokens.RefreshToken).To(Equal("new-refresh"))
		})

		It("should answer 400 when the token is missing", func() {
			w := httptest.NewRecorder()
			handler.RefreshToken(w, postJSON("/auth/refresh", auth.RefreshTokenDTO{}))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 401 on an invalid token", func() {
			service.refreshErr = auth.ErrInvalidToken

			w := httptest.NewRecorder()
			handler.RefreshToken(w, postJSON("/auth/refresh", auth.RefreshTokenDTO{RefreshToken: "garbage"}))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("AuthMiddleware", func() {
		var next http.Handler
		var reached bool

		BeforeEach(func() {
			reached = false
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := auth.UserFromContext(r.Context())
				Expect(ok).To(BeTrue())
				Expect(user.Username).To(Equal("alice"))
				reached = true
				w.WriteHeader(http.StatusOK)
			})
		})

		It("should load the user onto the context", func() {
			service.claims = &auth.Claims{UserID: "user-1", Username: "alice", Scope: auth.ScopeAccess}
			service.user = &auth.User{ID: "user-1", Username: "alice"}

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer sometoken")
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(reached).To(BeTrue())
		})

		It("should answer 401 without a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeFalse())
		})

		It("should answer 401 on a rejected token", func() {
			service.validateErr = auth.ErrInvalidToken

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer sometoken")
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeFalse())
		})
	})
})
