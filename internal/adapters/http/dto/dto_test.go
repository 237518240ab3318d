package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-vault/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestContext creates a gin context with a recorder and a GET request.
func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	return c, w
}

// TestNewErrorResponse tests creating a basic error response.
func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrorCodeNotFound, "resource not found")

	assert.Equal(t, ErrorCodeNotFound, resp.Error.Code)
	assert.Equal(t, "resource not found", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
	assert.Empty(t, resp.TraceID)
}

// TestNewErrorResponseWithDetails tests creating an error response with field details.
func TestNewErrorResponseWithDetails(t *testing.T) {
	details := map[string]string{"author": "this field is required"}
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "validation failed", details)

	assert.Equal(t, ErrorCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponse_WithTraceID(t *testing.T) {
	resp := NewErrorResponse(ErrorCodeInternal, "boom").WithTraceID("abc123")

	assert.Equal(t, "abc123", resp.TraceID)
}

// TestErrorResponse_JSONShape verifies the wire format of the envelope.
func TestErrorResponse_JSONShape(t *testing.T) {
	resp := NewErrorResponseWithDetails(
		ErrorCodeValidation,
		"validation failed",
		map[string]string{"quote": "must not be empty"},
	).WithTraceID("trace-1")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Equal(t, "validation failed", errObj["message"])
	assert.Equal(t, "trace-1", decoded["traceId"])

	// Optional fields are omitted when empty
	data, err = json.Marshal(NewErrorResponse(ErrorCodeNotFound, "missing"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "traceId")
	assert.NotContains(t, string(data), "details")
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeBadRequest, http.StatusBadRequest},
		{ErrorCodeForbidden, http.StatusForbidden},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeTimeout, http.StatusGatewayTimeout},
		{ErrorCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatusFromCode(tt.code))
		})
	}
}

// TestMapDomainError tests the error mapping function with all domain error types.
func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedField  string
	}{
		{
			name:           "not found error",
			err:            domain.NewNotFoundError("quote", "123"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeNotFound,
		},
		{
			name:           "conflict error",
			err:            domain.NewConflictError("quote", "already exists"),
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCodeConflict,
		},
		{
			name:           "validation error with field",
			err:            domain.NewValidationError("author", "must not be empty"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidation,
			expectedField:  "author",
		},
		{
			name:           "validation error without field",
			err:            domain.NewValidationError("", "invalid input"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidation,
		},
		{
			name:           "forbidden error",
			err:            domain.NewForbiddenError("reset", "admin role required"),
			expectedStatus: http.StatusForbidden,
			expectedCode:   ErrorCodeForbidden,
		},
		{
			name:           "unavailable error",
			err:            domain.NewUnavailableError("quotable", "connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   ErrorCodeUnavailable,
		},
		{
			name:           "unknown error",
			err:            errors.New("something broke"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.expectedStatus, status)
			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)

			if tt.expectedField != "" {
				require.NotNil(t, resp.Error.Details)
				assert.Contains(t, resp.Error.Details, tt.expectedField)
			}
		})
	}

	t.Run("nil error", func(t *testing.T) {
		status, resp := MapDomainError(nil)

		assert.Equal(t, http.StatusOK, status)
		assert.Nil(t, resp)
	})
}

// TestMapDomainError_UnknownMessageHidden verifies internals don't leak.
func TestMapDomainError_UnknownMessageHidden(t *testing.T) {
	_, resp := MapDomainError(errors.New("pq: connection string secrets"))

	require.NotNil(t, resp)
	assert.NotContains(t, resp.Error.Message, "secrets")
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found",
			err:            domain.NewNotFoundError("quote", "missing-id"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeNotFound,
		},
		{
			name:           "internal error",
			err:            errors.New("db exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)

			HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

func TestHandleErrorCode(t *testing.T) {
	c, w := newTestContext(t)

	HandleErrorCode(c, ErrorCodeBadRequest, "malformed request body")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "malformed request body", resp.Error.Message)
}

func TestHandleValidationErrors(t *testing.T) {
	c, w := newTestContext(t)

	HandleValidationErrors(c, map[string]string{
		"author": "this field is required",
		"quote":  "must not be empty",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "this field is required", resp.Error.Details["author"])
}

func TestAbortWithError(t *testing.T) {
	c, w := newTestContext(t)

	AbortWithError(c, domain.NewForbiddenError("reset", "admin role required"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}

func TestAbortWithErrorCode(t *testing.T) {
	c, w := newTestContext(t)

	AbortWithErrorCode(c, ErrorCodeUnauthorized, "authentication required")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeUnauthorized, resp.Error.Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	c, _ := newTestContext(t)

	assert.Empty(t, GetTraceID(c))
}

func TestNewPaginatedResponse(t *testing.T) {
	t.Run("with items and next token", func(t *testing.T) {
		resp := NewPaginatedResponse([]string{"a", "b", "c"}, 1, 7, "tok-next")

		assert.Equal(t, []string{"a", "b", "c"}, resp.Quotes)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 7, resp.Total)
		assert.Equal(t, "tok-next", resp.NextToken)
	})

	t.Run("nil items become empty slice", func(t *testing.T) {
		resp := NewPaginatedResponse[string](nil, 1, 0, "")

		require.NotNil(t, resp.Quotes)
		assert.Empty(t, resp.Quotes)
	})

	t.Run("last page omits next token from JSON", func(t *testing.T) {
		resp := NewPaginatedResponse([]string{"a"}, 3, 7, "")

		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "next_token")
		assert.Contains(t, string(data), `"quotes"`)
	})
}

func TestListQuotesRequest_Binding(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"no token", "", ""},
		{"with token", "?token=abcdefghijklmnop", "abcdefghijklmnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/quotes"+tt.query, nil)

			var req ListQuotesRequest
			require.NoError(t, BindQueryAndValidate(c, &req))
			assert.Equal(t, tt.expected, req.Token)
		})
	}
}

// testStruct exercises struct tag validation with JSON tag names.
type testStruct struct {
	Author string `json:"author" validate:"required,notempty,max=10"`
	ID     string `json:"id"     validate:"omitempty,uuid"`
}

func TestValidate(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, Validate(testStruct{Author: "Seneca"}))
	})

	t.Run("missing required field", func(t *testing.T) {
		err := Validate(testStruct{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		err := Validate(testStruct{Author: "Seneca", ID: "not-a-uuid"})

		require.Error(t, err)
	})

	t.Run("valid uuid", func(t *testing.T) {
		err := Validate(testStruct{
			Author: "Seneca",
			ID:     "123e4567-e89b-12d3-a456-426614174000",
		})

		assert.NoError(t, err)
	})
}

func TestBindAndValidate(t *testing.T) {
	newJSONContext := func(body string) (*gin.Context, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		return c, w
	}

	t.Run("valid body", func(t *testing.T) {
		c, _ := newJSONContext(`{"author":"Epictetus"}`)

		var v testStruct
		require.NoError(t, BindAndValidate(c, &v))
		assert.Equal(t, "Epictetus", v.Author)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		c, _ := newJSONContext(`{"author":`)

		var v testStruct
		err := BindAndValidate(c, &v)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBinding)
	})

	t.Run("validation failure", func(t *testing.T) {
		c, _ := newJSONContext(`{"author":"   "}`)

		var v testStruct
		err := BindAndValidate(c, &v)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestValidationErrors(t *testing.T) {
	t.Run("extracts field messages with JSON names", func(t *testing.T) {
		err := Validate(testStruct{Author: "much too long for ten"})
		require.Error(t, err)

		fieldErrors := ValidationErrors(err)
		require.Contains(t, fieldErrors, "author")
		assert.Equal(t, "must be at most 10 characters", fieldErrors["author"])
	})

	t.Run("required message", func(t *testing.T) {
		err := Validate(testStruct{})
		require.Error(t, err)

		fieldErrors := ValidationErrors(err)
		assert.Equal(t, "this field is required", fieldErrors["author"])
	})

	t.Run("non-validation error yields empty map", func(t *testing.T) {
		fieldErrors := ValidationErrors(errors.New("plain error"))

		assert.Empty(t, fieldErrors)
	})
}

func TestIsValidationError(t *testing.T) {
	validationErr := Validate(testStruct{})
	require.Error(t, validationErr)

	assert.True(t, IsValidationError(validationErr))
	assert.False(t, IsValidationError(errors.New("plain error")))
	assert.False(t, IsValidationError(nil))
}

// validatableStruct implements Validatable for ValidateAll tests.
type validatableStruct struct {
	Author string `json:"author" validate:"required"`
	fail   bool
}

func (v validatableStruct) Validate() error {
	if v.fail {
		return errors.New("custom rule violated")
	}

	return nil
}

func TestValidateAll(t *testing.T) {
	t.Run("passes both stages", func(t *testing.T) {
		assert.NoError(t, ValidateAll(validatableStruct{Author: "Seneca"}))
	})

	t.Run("struct tag failure short-circuits", func(t *testing.T) {
		err := ValidateAll(validatableStruct{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("custom validation failure", func(t *testing.T) {
		err := ValidateAll(validatableStruct{Author: "Seneca", fail: true})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "custom rule violated")
	})
}
