// Package registration contains the HTTP handlers that render the
// registration form over JSON.
//
// Every visitor gets their own form.Controller, found through a session
// cookie. The handlers are factories in the usual closure style:
//
//	router.HandleFunc("POST /api/registration", registration.Submit(sessions))
//
// Submit(sessions) runs once at startup; the returned function runs on
// every request.
package registration

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	formUtils "github.com/go-playground/form/v4"

	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/session"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/types"
	"github.com/aanand-mishra/cafe-registration/internal/utils/response"
)

// Sessions binds the session store to the cookie that carries its ids.
type Sessions struct {
	Store  *session.Store
	Cookie string
}

// with runs fn against the visitor's controller and (re)issues the cookie
// when a new session had to be started.
func (s Sessions) with(w http.ResponseWriter, r *http.Request, fn func(*form.Controller) error) error {
	var current string
	if c, err := r.Cookie(s.Cookie); err == nil {
		current = c.Value
	}

	id, err := s.Store.With(current, fn)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     s.Cookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return err
}

// view runs fn, which cannot fail, and returns the resulting View.
func (s Sessions) view(w http.ResponseWriter, r *http.Request, fn func(*form.Controller)) View {
	var v View
	_ = s.with(w, r, func(c *form.Controller) error {
		fn(c)
		v = viewOf(c)
		return nil
	})
	return v
}

// View is what a rendering surface needs to draw the form. Passwords are
// write-only and always come back empty.
type View struct {
	Values types.Registration `json:"values"`
	Errors types.Errors       `json:"errors"`
}

func viewOf(c *form.Controller) View {
	values := c.State()
	values.Password = ""
	values.ConfirmPassword = ""
	return View{Values: values, Errors: c.Errors()}
}

// Submitted is the body of a 201 response.
type Submitted struct {
	Status  string `json:"status"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Fields handles GET /api/registration/fields
// Returns the field catalogue (labels, placeholders, kinds, options).
// ─────────────────────────────────────────────────────────────────────────────
func Fields() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, types.Catalogue)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Get handles GET /api/registration
// Returns the visitor's current values and error messages.
// ─────────────────────────────────────────────────────────────────────────────
func Get(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := sessions.view(w, r, func(*form.Controller) {})
		response.WriteJSON(w, http.StatusOK, v)
	}
}

type fieldUpdate struct {
	Value json.RawMessage `json:"value"`
}

// rawValue accepts a JSON string or a JSON boolean (handy for the checkbox).
func (u fieldUpdate) rawValue() (string, error) {
	var s string
	if err := json.Unmarshal(u.Value, &s); err == nil {
		return s, nil
	}
	var b bool
	if err := json.Unmarshal(u.Value, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", errors.New(`"value" must be a string or a boolean`)
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateField handles PUT /api/registration/fields/{field}
// Stores one field value and clears that field's error message.
//
// Request body, JSON:
//
//	{ "value": "max@example.com" }
//
// or application/x-www-form-urlencoded:
//
//	value=max%40example.com
//
// Error responses:
//
//	400 Bad Request  — empty or malformed body, unknown field
// ─────────────────────────────────────────────────────────────────────────────
func UpdateField(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field := r.PathValue("field")
		slog.Info("updating a field", slog.String("field", field))

		raw, err := readFieldValue(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		var v View
		err = sessions.with(w, r, func(c *form.Controller) error {
			if err := c.UpdateField(field, raw, types.KindOf(field)); err != nil {
				return err
			}
			v = viewOf(c)
			return nil
		})
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, v)
	}
}

func readFieldValue(r *http.Request) (string, error) {
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostForm.Get("value"), nil
	}

	var body fieldUpdate
	err := json.NewDecoder(r.Body).Decode(&body)
	if errors.Is(err, io.EOF) {
		return "", errors.New("request body is empty")
	}
	if err != nil {
		return "", err
	}
	if body.Value == nil {
		return "", errors.New(`missing "value"`)
	}
	return body.rawValue()
}

// ─────────────────────────────────────────────────────────────────────────────
// Validate handles POST /api/registration/validate
// Runs every rule, stores the messages and returns the view.
// ─────────────────────────────────────────────────────────────────────────────
func Validate(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("validating a registration")

		v := sessions.view(w, r, func(c *form.Controller) { c.Validate() })
		response.WriteJSON(w, http.StatusOK, v)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit handles POST /api/registration
// Validates and, when clean, hands the registration on and resets the form.
//
// An optional body (JSON or a urlencoded form post) replaces all values
// first, so a plain HTML form can post straight here.
//
// Success response (201 Created):
//
//	{ "status": "ok", "id": 1, "message": "Registration successful! Welcome aboard." }
//
// Error responses:
//
//	400 Bad Request          — malformed body
//	409 Conflict             — email already registered
//	422 Unprocessable Entity — validation failed; "fields" holds the messages
//	500 Internal             — submission failed
// ─────────────────────────────────────────────────────────────────────────────
func Submit(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("submitting a registration")

		reg, replace, err := readRegistration(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		var res form.Result
		err = sessions.with(w, r, func(c *form.Controller) error {
			if replace {
				c.Replace(reg)
			}
			var err error
			res, err = c.Submit(r.Context())
			return err
		})

		switch {
		case errors.Is(err, storage.ErrDuplicateEmail):
			response.WriteJSON(w, http.StatusConflict, response.GeneralError(storage.ErrDuplicateEmail))
		case err != nil:
			slog.Error("error submitting registration", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
		case !res.Submitted:
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(res.Errors))
		default:
			slog.Info("registration accepted", slog.Int64("id", res.Receipt.ID))
			response.WriteJSON(w, http.StatusCreated, Submitted{
				Status:  response.StatusOK,
				ID:      res.Receipt.ID,
				Message: res.Receipt.Message,
			})
		}
	}
}

var decoder = newDecoder()

func newDecoder() *formUtils.Decoder {
	d := formUtils.NewDecoder()
	// checkboxes post "on"; read them like every other toggle
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		if len(vals) == 0 {
			return false, nil
		}
		return types.ParseToggle(vals[0]), nil
	}, false)
	return d
}

// readRegistration decodes a full set of values. ok is false when the
// request carries none.
func readRegistration(r *http.Request) (reg types.Registration, ok bool, err error) {
	reg = types.NewRegistration()

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return reg, false, err
		}
		if len(r.PostForm) == 0 {
			return reg, false, nil
		}
		if err := decoder.Decode(&reg, r.PostForm); err != nil {
			return reg, false, err
		}
		return reg, true, nil
	}

	err = json.NewDecoder(r.Body).Decode(&reg)
	if errors.Is(err, io.EOF) {
		return reg, false, nil
	}
	if err != nil {
		return reg, false, err
	}
	return reg, true, nil
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// ─────────────────────────────────────────────────────────────────────────────
// Reset handles DELETE /api/registration
// Puts the visitor's form back to its defaults.
// ─────────────────────────────────────────────────────────────────────────────
func Reset(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("resetting a registration")

		v := sessions.view(w, r, (*form.Controller).Reset)
		response.WriteJSON(w, http.StatusOK, v)
	}
}
