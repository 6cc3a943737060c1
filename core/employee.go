package core

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credential is the transient username/password pair submitted to login.
type Credential struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate reports ErrBadRequest when either field is empty.
func (c Credential) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// EmployeeRecord is the public projection of a directory row.
type EmployeeRecord struct {
	EmployeeID int64  `json:"employee_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Email      string `json:"email"`
}

// Tokens is what an identity provider hands back on success.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

// TokenBundle is the login response body and the blob the portal persists.
type TokenBundle struct {
	IDToken      string         `json:"idToken"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Employee     EmployeeRecord `json:"employee"`
}

// NewTokenBundle merges provider tokens with the employee projection.
func NewTokenBundle(t Tokens, emp EmployeeRecord) TokenBundle {
	return TokenBundle{
		IDToken:      t.IDToken,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Employee:     emp,
	}
}

// employeeColumns is the fixed select list of the directory lookup, in query order.
var employeeColumns = []string{"employee_id", "username", "name", "department", "title", "email"}

// Column is one named cell of a directory row.
type Column struct {
	Name  string
	Value any
}

// ZipColumns pairs column names with cells by position. The store returns both
// as parallel arrays in the order the query listed them, so len(names) must
// equal len(cells).
func ZipColumns(names []string, cells []any) ([]Column, error) {
	if len(names) != len(cells) {
		return nil, fmt.Errorf("%w: %d columns, %d cells", ErrColumnMismatch, len(names), len(cells))
	}
	out := make([]Column, len(names))
	for i := range names {
		out[i] = Column{Name: names[i], Value: cells[i]}
	}
	return out, nil
}

// EmployeeFromRow maps a zipped row onto EmployeeRecord. Only the whitelisted
// employee columns are read; anything else in the row is dropped.
func EmployeeFromRow(cols []Column) (EmployeeRecord, error) {
	var emp EmployeeRecord
	for _, c := range cols {
		switch c.Name {
		case "employee_id":
			id, err := asInt64(c.Value)
			if err != nil {
				return EmployeeRecord{}, fmt.Errorf("employee_id: %w", err)
			}
			emp.EmployeeID = id
		case "username":
			emp.Username = asString(c.Value)
		case "name":
			emp.Name = asString(c.Value)
		case "department":
			emp.Department = asString(c.Value)
		case "title":
			emp.Title = asString(c.Value)
		case "email":
			emp.Email = asString(c.Value)
		}
	}
	return emp, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
