package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialValidate(t *testing.T) {
	cases := []struct {
		name string
		cred Credential
		ok   bool
	}{
		{"both set", Credential{Username: "jdoe", Password: "pw"}, true},
		{"no username", Credential{Password: "pw"}, false},
		{"no password", Credential{Username: "jdoe"}, false},
		{"empty", Credential{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cred.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestZipColumns(t *testing.T) {
	cols, err := ZipColumns([]string{"employee_id", "name"}, []any{int64(7), "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "employee_id", Value: int64(7)}, {Name: "name", Value: "Jane Doe"}}, cols)

	_, err = ZipColumns([]string{"employee_id", "name"}, []any{int64(7)})
	assert.True(t, errors.Is(err, ErrColumnMismatch))

	cols, err = ZipColumns(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestEmployeeFromRowKeepsWhitelistedColumns(t *testing.T) {
	names := []string{"employee_id", "username", "name", "department", "title", "email", "phone", "manager_id"}
	cells := []any{int64(42), "jdoe", "Jane Doe", "Eng", "Engineer", "jdoe@example.com", "02-0000-0000", int64(1)}
	cols, err := ZipColumns(names, cells)
	require.NoError(t, err)

	emp, err := EmployeeFromRow(cols)
	require.NoError(t, err)
	assert.Equal(t, EmployeeRecord{
		EmployeeID: 42,
		Username:   "jdoe",
		Name:       "Jane Doe",
		Department: "Eng",
		Title:      "Engineer",
		Email:      "jdoe@example.com",
	}, emp)

	data, err := json.Marshal(emp)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 6)
	assert.NotContains(t, fields, "phone")
}

func TestEmployeeFromRowNullsAndNumericKinds(t *testing.T) {
	emp, err := EmployeeFromRow([]Column{
		{Name: "employee_id", Value: int32(5)},
		{Name: "department", Value: nil},
		{Name: "title", Value: []byte("Lead")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), emp.EmployeeID)
	assert.Empty(t, emp.Department)
	assert.Equal(t, "Lead", emp.Title)

	emp, err = EmployeeFromRow([]Column{{Name: "employee_id", Value: "17"}})
	require.NoError(t, err)
	assert.Equal(t, int64(17), emp.EmployeeID)

	_, err = EmployeeFromRow([]Column{{Name: "employee_id", Value: true}})
	assert.Error(t, err)
}

func TestTokenBundleJSONShape(t *testing.T) {
	b := NewTokenBundle(
		Tokens{IDToken: "id", AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 3600, TokenType: "Bearer"},
		EmployeeRecord{EmployeeID: 1, Username: "jdoe", Name: "Jane Doe"},
	)
	data, err := json.Marshal(b)
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &body))
	assert.ElementsMatch(t, []string{"idToken", "accessToken", "refreshToken", "employee"}, keys(body))
	assert.JSONEq(t, `"id"`, string(body["idToken"]))
	assert.JSONEq(t, `"ref"`, string(body["refreshToken"]))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
