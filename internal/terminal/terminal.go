// Package terminal renders the registration form as a sequence of prompts.
//
// Run walks the fields in form order, feeds every answer through the
// controller and submits. When validation fails it prints the messages and
// asks again for the failing fields only, until the registration goes
// through or the user gives up.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/types"
)

const duplicateEmail = "That email is already registered"

// Run collects one registration through d and submits it with c.
func Run(ctx context.Context, c *form.Controller, d Driver) (form.Receipt, error) {
	pending := types.Catalogue
	var problems types.Errors

	for {
		for _, f := range pending {
			raw, err := ask(ctx, d, f, c.State(), problems[f.Key])
			if err != nil {
				return form.Receipt{}, err
			}
			if err := c.UpdateField(f.Key, raw, f.Kind); err != nil {
				return form.Receipt{}, err
			}
		}

		res, err := c.Submit(ctx)
		switch {
		case errors.Is(err, storage.ErrDuplicateEmail):
			problems = types.Errors{types.FieldEmail: duplicateEmail}
		case err != nil:
			return form.Receipt{}, err
		case res.Submitted:
			if err := d.Info(ctx, res.Receipt.Message); err != nil {
				return res.Receipt, err
			}
			return res.Receipt, nil
		default:
			problems = res.Errors
		}

		if err := report(ctx, d, problems); err != nil {
			return form.Receipt{}, err
		}
		pending = failing(problems)
	}
}

func report(ctx context.Context, d Driver, problems types.Errors) error {
	if err := d.Info(ctx, "Please correct the following:"); err != nil {
		return err
	}
	for _, f := range types.Catalogue {
		if msg := problems[f.Key]; msg != "" {
			if err := d.Info(ctx, fmt.Sprintf("  • %s: %s", f.Label, msg)); err != nil {
				return err
			}
		}
	}
	return nil
}

// failing returns the fields to ask again, in form order. A new password
// needs confirming again.
func failing(problems types.Errors) []types.Field {
	var out []types.Field
	for _, f := range types.Catalogue {
		if problems.Has(f.Key) ||
			(f.Key == types.FieldConfirmPassword && problems.Has(types.FieldPassword)) {
			out = append(out, f)
		}
	}
	return out
}

func ask(ctx context.Context, d Driver, f types.Field, state types.Registration, problem string) (string, error) {
	message := f.Label
	if problem != "" {
		message = fmt.Sprintf("%s (%s)", f.Label, problem)
	}

	switch f.Input {
	case "password":
		return d.Password(ctx, InputConfig{Message: message, Help: f.Placeholder})

	case "checkbox":
		checked, err := d.Confirm(ctx, ConfirmConfig{Message: message, Default: state.Terms})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(checked), nil

	case "select", "radio":
		labels := make([]string, len(f.Options))
		def := 0
		current := valueOf(state, f.Key)
		for i, o := range f.Options {
			labels[i] = o.Label
			if o.Value == current {
				def = i
			}
		}
		idx, err := d.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(f.Options) {
			return "", fmt.Errorf("terminal: %s: no option at index %d", f.Key, idx)
		}
		return f.Options[idx].Value, nil

	case "textarea":
		return d.TextArea(ctx, TextAreaConfig{Message: message, Default: valueOf(state, f.Key), Help: f.Placeholder})

	default:
		return d.Input(ctx, InputConfig{Message: message, Default: valueOf(state, f.Key), Help: f.Placeholder})
	}
}

func valueOf(state types.Registration, key string) string {
	switch key {
	case types.FieldName:
		return state.Name
	case types.FieldEmail:
		return state.Email
	case types.FieldPhone:
		return state.Phone
	case types.FieldPayment:
		return string(state.Payment)
	case types.FieldGender:
		return string(state.Gender)
	case types.FieldComments:
		return state.Comments
	default:
		return ""
	}
}
