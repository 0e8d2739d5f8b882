// Package views decides which dashboard views and mutations a role may use.
package views

import (
	"fmt"

	"choir-dashboard/internal/model"
)

type View string

const (
	Home       View = "home"
	Profile    View = "profile"
	Info       View = "info"
	Concerts   View = "concerts"
	Repertoire View = "repertoire"
	Payments   View = "payments"
	Statistics View = "statistics"
	Settings   View = "settings"
)

// navigation order
var (
	memberViews = []View{Home, Profile, Info, Concerts, Repertoire, Payments}
	adminViews  = []View{Home, Profile, Info, Concerts, Repertoire, Payments, Statistics, Settings}
)

// Fallback is shown when the requested view is not permitted.
const Fallback = Concerts

type Selection struct {
	Permitted []View `json:"permitted"`
	Active    View   `json:"active"`
}

func Permitted(role model.Role) ([]View, error) {
	var list []View
	switch role {
	case model.RoleMember, model.RoleDirector:
		list = memberViews
	case model.RoleAdmin:
		list = adminViews
	default:
		return nil, fmt.Errorf("views for %v: %w", role, model.ErrInvalidInput)
	}
	out := make([]View, len(list))
	copy(out, list)
	return out, nil
}

// Select returns the role's navigation and the view to render for the
// requested one.
func Select(role model.Role, active View) (Selection, error) {
	permitted, err := Permitted(role)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Permitted: permitted, Active: Fallback}
	for _, v := range permitted {
		if v == active {
			sel.Active = active
			break
		}
	}
	return sel, nil
}

type Action int

const (
	SetOwnAttendance Action = iota
	CreateConcert
	CancelConcert
	SaveConfiguration
	ListAttendees
)

func (a Action) String() string {
	switch a {
	case SetOwnAttendance:
		return "set_own_attendance"
	case CreateConcert:
		return "create_concert"
	case CancelConcert:
		return "cancel_concert"
	case SaveConfiguration:
		return "save_configuration"
	case ListAttendees:
		return "list_attendees"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// CanMutate reports whether the role may attempt the action at all.
// Ownership of attendance rows is checked separately by the ledger.
func CanMutate(role model.Role, action Action) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleMember, model.RoleDirector:
		return action == SetOwnAttendance
	default:
		return false
	}
}
