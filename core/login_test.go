package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FindEmployee(ctx context.Context, username string) (EmployeeRecord, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(EmployeeRecord), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Authenticate(ctx context.Context, username, password string) (Tokens, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(Tokens), args.Error(1)
}

var jdoe = EmployeeRecord{
	EmployeeID: 42,
	Username:   "jdoe",
	Name:       "Jane Doe",
	Department: "Eng",
	Title:      "Engineer",
	Email:      "jdoe@example.com",
}

func TestLoginMissingFieldsTouchesNothing(t *testing.T) {
	dir := &mockDirectory{}
	prov := &mockProvider{}
	svc := NewLoginService(dir, prov)

	for _, cred := range []Credential{{}, {Username: "jdoe"}, {Password: "pw"}} {
		_, err := svc.Login(context.Background(), cred)
		require.ErrorIs(t, err, ErrBadRequest)
		status, body := LoginStatus(err)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "username/password required", body)
	}
	dir.AssertNotCalled(t, "FindEmployee", mock.Anything, mock.Anything)
	prov.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUnknownUserSkipsProvider(t *testing.T) {
	dir := &mockDirectory{}
	prov := &mockProvider{}
	dir.On("FindEmployee", mock.Anything, "ghost").Return(EmployeeRecord{}, ErrUnknownUser)

	_, err := NewLoginService(dir, prov).Login(context.Background(), Credential{Username: "ghost", Password: "x"})
	require.ErrorIs(t, err, ErrUnknownUser)
	status, body := LoginStatus(err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not registered employee", body)
	dir.AssertExpectations(t)
	prov.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginProviderFailureIsOpaque(t *testing.T) {
	dir := &mockDirectory{}
	prov := &mockProvider{}
	dir.On("FindEmployee", mock.Anything, "jdoe").Return(jdoe, nil)
	prov.On("Authenticate", mock.Anything, "jdoe", "wrong").Return(Tokens{}, errors.New("NotAuthorizedException: Incorrect username or password."))

	_, err := NewLoginService(dir, prov).Login(context.Background(), Credential{Username: "jdoe", Password: "wrong"})
	require.ErrorIs(t, err, ErrAuthFailed)
	status, body := LoginStatus(err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Cognito login failed", body)
	assert.NotContains(t, body, "Incorrect")
	dir.AssertExpectations(t)
	prov.AssertExpectations(t)
}

func TestLoginDirectoryErrorIsAuthFailure(t *testing.T) {
	dir := &mockDirectory{}
	prov := &mockProvider{}
	dir.On("FindEmployee", mock.Anything, "jdoe").Return(EmployeeRecord{}, errors.New("connection refused"))

	_, err := NewLoginService(dir, prov).Login(context.Background(), Credential{Username: "jdoe", Password: "pw"})
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.NotErrorIs(t, err, ErrUnknownUser)
	prov.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccessMergesTokensAndEmployee(t *testing.T) {
	dir := &mockDirectory{}
	prov := &mockProvider{}
	dir.On("FindEmployee", mock.Anything, "jdoe").Return(jdoe, nil)
	prov.On("Authenticate", mock.Anything, "jdoe", "correct").Return(Tokens{
		IDToken: "id-tok", AccessToken: "acc-tok", RefreshToken: "ref-tok", ExpiresIn: 3600, TokenType: "Bearer",
	}, nil)

	bundle, err := NewLoginService(dir, prov).Login(context.Background(), Credential{Username: "jdoe", Password: "correct"})
	require.NoError(t, err)
	assert.Equal(t, "id-tok", bundle.IDToken)
	assert.Equal(t, "acc-tok", bundle.AccessToken)
	assert.Equal(t, "ref-tok", bundle.RefreshToken)
	assert.Equal(t, jdoe, bundle.Employee)

	data, err := json.Marshal(bundle)
	require.NoError(t, err)
	var body struct {
		Employee map[string]any `json:"employee"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Jane Doe", body.Employee["name"])
	assert.Len(t, body.Employee, 6)
}

func TestLoginStatusUnknownErrorIsAuthFailure(t *testing.T) {
	status, body := LoginStatus(errors.New("boom"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Cognito login failed", body)

	status, body = LoginStatus(nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}
