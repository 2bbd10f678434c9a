package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/auth"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/utils"
)

type stubAuth struct {
	token       dtos.AuthTokenDTO
	registerErr error
	loginErr    error
}

func (s *stubAuth) Register(context.Context, dtos.DTOForUserCreate) (dtos.AuthTokenDTO, error) {
	return s.token, s.registerErr
}

func (s *stubAuth) Login(context.Context, dtos.DTOForUserLogin) (dtos.AuthTokenDTO, error) {
	return s.token, s.loginErr
}

func (s *stubAuth) ForgotPassword(context.Context, string) error { return nil }

func (s *stubAuth) ResetPassword(context.Context, string, string) error { return nil }

func newAuthRouter(s *stubAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.RegisterBindingValidations()
	r := gin.New()
	AuthRoutes(r.Group("/auth"), s)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"email":"ana@example.com","password":"secret123","name":"Ana","surname":"Lima","phone":"5511999999999"}`

func TestRegister_ReturnsOrganizationScopedToken(t *testing.T) {
	r := newAuthRouter(&stubAuth{token: dtos.AuthTokenDTO{Token: "jwt", UserID: 3, OrganizationID: 8}})

	rec := postJSON(r, "/auth/register", registerBody)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data dtos.AuthTokenDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "jwt", body.Data.Token)
	assert.Equal(t, uint(8), body.Data.OrganizationID)
}

func TestRegister_ExistingUserConflicts(t *testing.T) {
	r := newAuthRouter(&stubAuth{registerErr: auth.ErrUserExists})

	rec := postJSON(r, "/auth/register", registerBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newAuthRouter(&stubAuth{loginErr: errors.New(constant.UNAUTHORIZED_ACCESS)})

	rec := postJSON(r, "/auth/login", `{"email":"ana@example.com","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPassword_SameAnswerForEveryAddress(t *testing.T) {
	r := newAuthRouter(&stubAuth{})

	rec := postJSON(r, "/auth/forgot-password", `{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), constant.RESET_LINK_SENT)
}
