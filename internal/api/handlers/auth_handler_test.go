package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

const authTestSecret = "auth-test-secret"

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterIssuesToken(t *testing.T) {
	db := newFakeDB()
	h := NewAuthHandler(db, authTestSecret, testLogger())

	rec := postJSON(t, h.Register, "/api/register", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hunter22",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(resp["token"], claims, func(*jwt.Token) (interface{}, error) {
		return []byte(authTestSecret), nil
	})
	require.NoError(t, err)

	// The new user is stored with a hashed password and the Free plan.
	user, err := db.GetUserByEmail(context.Background(), "grace@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "Free", user.Plan)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newFakeDB()
	h := NewAuthHandler(db, authTestSecret, testLogger())

	body := map[string]string{"email": "dup@example.com", "password": "pw"}
	require.Equal(t, http.StatusOK, postJSON(t, h.Register, "/api/register", body).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, h.Register, "/api/register", body).Code)
}

func TestRegisterMissingFields(t *testing.T) {
	h := NewAuthHandler(newFakeDB(), authTestSecret, testLogger())

	rec := postJSON(t, h.Register, "/api/register", map[string]string{"email": "x@y.z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	db := newFakeDB()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	_ = db.CreateUser(context.Background(), &models.User{
		ID: "u1", Email: "ada@example.com", PasswordHash: string(hash),
		Plan: "Free", CreatedAt: time.Now(),
	})
	h := NewAuthHandler(db, authTestSecret, testLogger())

	rec := postJSON(t, h.Login, "/api/login", map[string]string{
		"email": "ada@example.com", "password": "correct",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")

	rec = postJSON(t, h.Login, "/api/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h.Login, "/api/login", map[string]string{
		"email": "nobody@example.com", "password": "correct",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
