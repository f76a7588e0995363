package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"identity_backend/internal/config"
	"identity_backend/internal/domain"
	"identity_backend/internal/platform/database"
	"identity_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HandlerIntegrationTestSuite drives the auth routes over HTTP against an
// in-memory database.
type HandlerIntegrationTestSuite struct {
	suite.Suite
	Router  *gin.Engine
	Cookies CookieConfig
	Service *Service
}

type apiEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string      `json:"code"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

func (s *HandlerIntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	db := database.NewTestDB(s.T())
	users := user.NewGORMRepository(db)
	tokens, err := NewTokenService(testTokenConfig, user.NewGORMRefreshTokenRepository(db), zap.NewNop())
	s.Require().NoError(err)

	s.Service = NewService(users, tokens, bcrypt.MinCost, zap.NewNop())
	s.Cookies = CookieConfig{
		AccessName:  "jt",
		RefreshName: "rt",
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
	}
	cfg := &config.Config{OAuthStateCookieName: "oauth_state", OAuthCookieMaxAgeMinutes: 10}
	h := NewHandler(s.Service, NewOAuthService(cfg, s.Service, zap.NewNop()), s.Cookies, zap.NewNop())

	s.Router = gin.New()
	h.RegisterRoutes(s.Router.Group("/api"))
}

func TestHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerIntegrationTestSuite))
}

func (s *HandlerIntegrationTestSuite) do(method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, apiEnvelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	var env apiEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func (s *HandlerIntegrationTestSuite) TestSignUp_SetsCookiesAndHidesPassword() {
	w, env := s.do(http.MethodPost, "/api/sign-up", `{"email":"Alice@Example.com","password":"pw","firstName":"Alice"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("success", env.Status)
	s.NotContains(w.Body.String(), "password")
	s.NotContains(w.Body.String(), "$2a$")

	var data TokenResponse
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.NotEmpty(data.AccessToken)
	s.NotEmpty(data.RefreshToken)
	s.Require().NotNil(data.User)
	s.Equal("Alice@Example.com", data.User.Email)
	s.Equal([]string{"User"}, data.User.Roles)

	access := cookieByName(w, "jt")
	s.Require().NotNil(access)
	s.Equal(data.AccessToken, access.Value)
	s.True(access.HttpOnly)
	s.Equal(http.SameSiteLaxMode, access.SameSite)
	refresh := cookieByName(w, "rt")
	s.Require().NotNil(refresh)
	s.Equal(data.RefreshToken, refresh.Value)
}

func (s *HandlerIntegrationTestSuite) TestSignUp_Duplicate() {
	w, _ := s.do(http.MethodPost, "/api/sign-up", `{"email":"bob@example.com","password":"pw"}`)
	s.Require().Equal(http.StatusCreated, w.Code)

	w, env := s.do(http.MethodPost, "/api/sign-up", `{"email":"BOB@example.com","password":"other"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("DUPLICATE_USER", env.Error.Code)
}

func (s *HandlerIntegrationTestSuite) TestSignUp_Validation() {
	w, env := s.do(http.MethodPost, "/api/sign-up", `{"email":"not-an-email","password":"pw"}`)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("VALIDATION_ERROR", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/sign-up", `{"email":"carl@example.com"}`)
	s.Equal(http.StatusUnprocessableEntity, w.Code, "local sign-up needs a password")

	w, _ = s.do(http.MethodPost, "/api/sign-up", `{"email":"carl@example.com","provider":"apple"}`)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w, env = s.do(http.MethodPost, "/api/sign-up", `{"email":"carl@example.com","provider":"google"}`)
	s.Equal(http.StatusUnauthorized, w.Code, "oauth sign-up needs a provider access token")
	s.Require().NotNil(env.Error)
	s.Equal("INVALID_CREDENTIALS", env.Error.Code)
}

func (s *HandlerIntegrationTestSuite) TestSignUp_OAuthIgnoresBareProviderID() {
	newProviderStub(s.T(), map[string]interface{}{"sub": "someone-else"}, nil)
	ctx := context.Background()
	victim, err := s.Service.LoginOrRegisterOAuth(ctx, domain.ProviderGoogle, "google-sub-123", domain.OAuthProfile{
		ProviderID:    "google-sub-123",
		Email:         "victim@example.com",
		EmailVerified: true,
	}, "127.0.0.1")
	s.Require().NoError(err)

	for _, body := range []string{
		`{"email":"attacker@evil.com","provider":"google","providerId":"google-sub-123"}`,
		`{"email":"attacker@evil.com","provider":"google","providerId":"google-sub-123","providerAccessToken":"forged"}`,
		`{"email":"attacker@evil.com","provider":"google","providerId":"google-sub-123","providerAccessToken":"provider-access-token"}`,
	} {
		w, env := s.do(http.MethodPost, "/api/sign-up", body)
		s.Equal(http.StatusUnauthorized, w.Code, body)
		s.Require().NotNil(env.Error, body)
		s.Equal("INVALID_CREDENTIALS", env.Error.Code, body)
		s.Nil(cookieByName(w, "jt"), body)
		s.Nil(cookieByName(w, "rt"), body)
		s.NotContains(w.Body.String(), victim.User.ID.String(), body)
	}
}

func (s *HandlerIntegrationTestSuite) TestSignUp_OAuthWithAccessToken() {
	newProviderStub(s.T(), map[string]interface{}{
		"sub":            "g-77",
		"email":          "Carl@Example.com",
		"email_verified": true,
		"given_name":     "Carl",
	}, nil)

	w, env := s.do(http.MethodPost, "/api/sign-up",
		`{"email":"someone@else.com","provider":"google","providerAccessToken":"provider-access-token"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var data TokenResponse
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotNil(data.User)
	s.Equal("carl@example.com", data.User.Email, "the provider profile wins over the body")
	s.NotNil(cookieByName(w, "jt"))

	stored, err := s.Service.users.FindByProvider(context.Background(), domain.ProviderGoogle, "g-77")
	s.Require().NoError(err)
	s.Equal(data.User.ID, stored.ID)
}

func (s *HandlerIntegrationTestSuite) TestSignIn() {
	s.do(http.MethodPost, "/api/sign-up", `{"email":"dana@example.com","password":"secret","username":"dana"}`)

	w, _ := s.do(http.MethodPost, "/api/sign-in", `{"emailOrUsername":"DANA","password":"secret"}`)
	s.Equal(http.StatusOK, w.Code)
	s.NotNil(cookieByName(w, "jt"))

	w, env := s.do(http.MethodPost, "/api/sign-in", `{"emailOrUsername":"dana@example.com","password":"nope"}`)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("INVALID_CREDENTIALS", env.Error.Code)
}

func (s *HandlerIntegrationTestSuite) TestRefreshToken_CookieThenBody() {
	w, env := s.do(http.MethodPost, "/api/sign-up", `{"email":"eve@example.com","password":"pw"}`)
	s.Require().Equal(http.StatusCreated, w.Code)
	var signUp TokenResponse
	s.Require().NoError(json.Unmarshal(env.Data, &signUp))

	w, env = s.do(http.MethodPost, "/api/refresh-token", "", &http.Cookie{Name: "rt", Value: signUp.RefreshToken})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var refreshed TokenResponse
	s.Require().NoError(json.Unmarshal(env.Data, &refreshed))
	s.Equal(signUp.RefreshToken, refreshed.RefreshToken)

	w, _ = s.do(http.MethodPost, "/api/refresh-token", `{"refreshToken":"`+signUp.RefreshToken+`"}`)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodPost, "/api/refresh-token", `{"refreshToken":"unknown"}`)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("INVALID_TOKEN", env.Error.Code)

	w, _ = s.do(http.MethodPost, "/api/refresh-token", "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerIntegrationTestSuite) TestSignOut_ClearsCookies() {
	w, _ := s.do(http.MethodPost, "/api/sign-out", "")
	s.Equal(http.StatusOK, w.Code)
	for _, name := range []string{"jt", "rt"} {
		ck := cookieByName(w, name)
		s.Require().NotNil(ck, name)
		s.Empty(ck.Value)
		s.True(ck.MaxAge < 0)
	}
}

func (s *HandlerIntegrationTestSuite) TestOAuth_NotConfigured() {
	w, env := s.do(http.MethodGet, "/api/google", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("SERVICE_UNAVAILABLE", env.Error.Code)

	w, _ = s.do(http.MethodGet, "/api/facebook/redirect?error=access_denied", "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/facebook/redirect", "")
	s.Equal(http.StatusBadRequest, w.Code)
}
