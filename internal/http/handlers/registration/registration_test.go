package registration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/session"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/types"
	"github.com/aanand-mishra/cafe-registration/internal/utils/response"
)

const cookieName = "registration_session"

type fixture struct {
	t         *testing.T
	router    *http.ServeMux
	cookie    *http.Cookie
	submitted []types.Registration
	submitErr error
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t}
	submitter := form.SubmitterFunc(func(_ context.Context, reg types.Registration) (form.Receipt, error) {
		if f.submitErr != nil {
			return form.Receipt{}, f.submitErr
		}
		f.submitted = append(f.submitted, reg)
		return form.Receipt{ID: int64(len(f.submitted)), Message: "Registration successful! Welcome aboard."}, nil
	})

	sessions := Sessions{
		Store:  session.NewStore(func() *form.Controller { return form.New(submitter) }, time.Hour, 100),
		Cookie: cookieName,
	}

	f.router = http.NewServeMux()
	f.router.HandleFunc("GET /api/registration/fields", Fields())
	f.router.HandleFunc("GET /api/registration", Get(sessions))
	f.router.HandleFunc("PUT /api/registration/fields/{field}", UpdateField(sessions))
	f.router.HandleFunc("POST /api/registration/validate", Validate(sessions))
	f.router.HandleFunc("POST /api/registration", Submit(sessions))
	f.router.HandleFunc("DELETE /api/registration", Reset(sessions))
	return f
}

func (f *fixture) do(method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			f.cookie = c
		}
	}
	return rec
}

func (f *fixture) put(field, jsonBody string) *httptest.ResponseRecorder {
	return f.do(http.MethodPut, "/api/registration/fields/"+field, "application/json", strings.NewReader(jsonBody))
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestFields(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/registration/fields", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fields []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Len(t, fields, len(types.Catalogue))
	require.Equal(t, "name", fields[0]["key"])
	require.Equal(t, "toggle", fields[7]["kind"])
}

func TestGetIssuesSessionCookie(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/registration", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.cookie)
	require.True(t, f.cookie.HttpOnly)

	v := decodeView(t, rec)
	require.Equal(t, types.NewRegistration(), v.Values)
	require.Empty(t, v.Errors)

	// the same session keeps its cookie
	first := f.cookie.Value
	rec = f.do(http.MethodGet, "/api/registration", "", nil)
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, first, f.cookie.Value)
}

func TestUpdateFieldJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.put("name", `{"value":"Max Johnson"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Max Johnson", decodeView(t, rec).Values.Name)

	rec = f.put("terms", `{"value":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeView(t, rec).Values.Terms)
}

func TestUpdateFieldForm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/api/registration/fields/terms",
		"application/x-www-form-urlencoded", strings.NewReader("value=on"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeView(t, rec).Values.Terms)
}

func TestUpdateFieldNeverEchoesPasswords(t *testing.T) {
	f := newFixture(t)

	rec := f.put("password", `{"value":"longenough1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "longenough1")
}

func TestUpdateFieldErrors(t *testing.T) {
	cases := []struct {
		name  string
		field string
		body  string
	}{
		{"unknown field", "nickname", `{"value":"maxi"}`},
		{"empty body", "name", ``},
		{"malformed json", "name", `{"value":`},
		{"missing value", "name", `{}`},
		{"wrong type", "name", `{"value":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.put(tc.field, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
}

func TestValidateThenEditClearsThatError(t *testing.T) {
	f := newFixture(t)
	f.put("email", `{"value":"bad"}`)

	rec := f.do(http.MethodPost, "/api/registration/validate", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	require.Equal(t, "Email is invalid", v.Errors["email"])
	require.Equal(t, "Name is required", v.Errors["name"])

	rec = f.put("email", `{"value":"new@value.com"}`)
	v = decodeView(t, rec)
	require.NotContains(t, v.Errors, "email")
	require.Equal(t, "Name is required", v.Errors["name"])
}

func TestSubmitFieldByField(t *testing.T) {
	f := newFixture(t)
	f.put("name", `{"value":"Max Johnson"}`)
	f.put("email", `{"value":"max@example.com"}`)
	f.put("password", `{"value":"longenough1"}`)
	f.put("confirmPassword", `{"value":"longenough1"}`)
	f.put("terms", `{"value":"on"}`)

	rec := f.do(http.MethodPost, "/api/registration", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got Submitted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, Submitted{Status: "ok", ID: 1, Message: "Registration successful! Welcome aboard."}, got)

	require.Len(t, f.submitted, 1)
	require.Equal(t, "longenough1", f.submitted[0].Password)

	// the session's form is back to its defaults
	v := decodeView(t, f.do(http.MethodGet, "/api/registration", "", nil))
	require.Equal(t, types.NewRegistration(), v.Values)
}

func TestSubmitJSONBody(t *testing.T) {
	f := newFixture(t)
	body := `{
		"name": "Max Johnson",
		"email": "max@example.com",
		"password": "longenough1",
		"confirmPassword": "longenough1",
		"payment": "card",
		"terms": true
	}`

	rec := f.do(http.MethodPost, "/api/registration", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.submitted, 1)
	require.Equal(t, types.PaymentCard, f.submitted[0].Payment)
	require.Equal(t, types.GenderMale, f.submitted[0].Gender, "omitted gender keeps its default")
}

func TestSubmitFormPost(t *testing.T) {
	f := newFixture(t)
	values := url.Values{
		"name":            {"Max Johnson"},
		"email":           {"max@example.com"},
		"password":        {"longenough1"},
		"confirmPassword": {"longenough1"},
		"payment":         {"cash"},
		"gender":          {"female"},
		"terms":           {"on"},
		"comments":        {"Cortado"},
	}

	rec := f.do(http.MethodPost, "/api/registration",
		"application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, f.submitted, 1)

	got := f.submitted[0]
	require.True(t, got.Terms)
	require.Equal(t, types.GenderFemale, got.Gender)
	require.Equal(t, types.PaymentCash, got.Payment)
	require.Equal(t, "Cortado", got.Comments)
}

func TestSubmitValidationFailure(t *testing.T) {
	f := newFixture(t)
	body := `{"name":"","email":"bad","password":"short","confirmPassword":"nomatch","terms":false}`

	rec := f.do(http.MethodPost, "/api/registration", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, types.Errors{
		"name":            "Name is required",
		"email":           "Email is invalid",
		"password":        "Password must be at least 8 characters",
		"confirmPassword": "Passwords don't match",
		"terms":           "You must agree to terms",
	}, got.Fields)
	require.Empty(t, f.submitted)

	// nothing was reset: the values and the messages are still there
	v := decodeView(t, f.do(http.MethodGet, "/api/registration", "", nil))
	require.Equal(t, "bad", v.Values.Email)
	require.Len(t, v.Errors, 5)
}

func TestSubmitDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.submitErr = storage.ErrDuplicateEmail
	body := `{"name":"Max","email":"max@example.com","password":"longenough1","confirmPassword":"longenough1","terms":true}`

	rec := f.do(http.MethodPost, "/api/registration", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitSubmitterFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.submitErr = errors.New("disk full")
	body := `{"name":"Max","email":"max@example.com","password":"longenough1","confirmPassword":"longenough1","terms":true}`

	rec := f.do(http.MethodPost, "/api/registration", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "disk full")

	v := decodeView(t, f.do(http.MethodGet, "/api/registration", "", nil))
	require.Equal(t, "Max", v.Values.Name)
	require.Equal(t, "max@example.com", v.Values.Email)
	require.True(t, v.Values.Terms)
	require.Empty(t, v.Errors)

	// once the collaborator recovers the same session goes through
	f.submitErr = nil
	rec = f.do(http.MethodPost, "/api/registration", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.submitted, 1)
	require.Equal(t, "longenough1", f.submitted[0].Password)
}

func TestSubmitMalformedBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/registration", "application/json", strings.NewReader(`{"terms":"yes"`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.put("name", `{"value":"Max"}`)
	f.do(http.MethodPost, "/api/registration/validate", "", nil)

	rec := f.do(http.MethodDelete, "/api/registration", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	require.Equal(t, types.NewRegistration(), v.Values)
	require.Empty(t, v.Errors)
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newFixture(t)
	a.put("name", `{"value":"Max"}`)

	// same router, no cookie: a different visitor
	b := &fixture{t: t, router: a.router}
	v := decodeView(t, b.do(http.MethodGet, "/api/registration", "", nil))
	require.Equal(t, "", v.Values.Name)
	require.NotEqual(t, a.cookie.Value, b.cookie.Value)
}
