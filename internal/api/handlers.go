package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"choir-dashboard/internal/concert"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/views"
)

type CreateConcertRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	Address     string     `json:"address"`
	Repertoire  string     `json:"repertoire"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type AttendanceRequest struct {
	Attending *bool `json:"attending"`
}

type CountResponse struct {
	ConcertID uuid.UUID `json:"concert_id"`
	Confirmed int       `json:"confirmed"`
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.InvalidInput("invalid %s", name)
	}
	return id, nil
}

// @Summary Liveness probe
// @Tags System
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Summary Navigation permitted for the caller
// @Tags Members
// @Security ApiKeyAuth
// @Produce json
// @Param active query string false "Requested view"
// @Success 200 {object} views.Selection
// @Router /me/views [get]
func (a *API) MyViews(w http.ResponseWriter, r *http.Request) {
	sel, err := views.Select(scopeOf(r).Role, views.View(r.URL.Query().Get("active")))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// @Summary Caller's own attendance answers keyed by concert
// @Tags Attendance
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /me/attendance [get]
func (a *API) MyAttendance(w http.ResponseWriter, r *http.Request) {
	answers, err := a.Ledger.MyAttendance(r.Context(), scopeOf(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// @Summary List concerts that are not cancelled
// @Tags Concerts
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} model.Concert
// @Router /concerts [get]
func (a *API) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	list, err := a.Concerts.ListUpcoming(r.Context(), scopeOf(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary List every concert including cancelled ones
// @Tags Concerts
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} model.Concert
// @Router /concerts/history [get]
func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	list, err := a.Concerts.ListAll(r.Context(), scopeOf(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary Create a concert
// @Tags Concerts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body CreateConcertRequest true "Concert"
// @Success 201 {object} model.Concert
// @Router /concerts [post]
func (a *API) CreateConcert(w http.ResponseWriter, r *http.Request) {
	var body CreateConcertRequest
	if err := decode(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.Concerts.Create(r.Context(), scopeOf(r), concert.CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Venue:       body.Venue,
		Address:     body.Address,
		Repertoire:  body.Repertoire,
		ScheduledAt: body.ScheduledAt,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// @Summary Get a concert
// @Tags Concerts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Concert UUID"
// @Success 200 {object} model.Concert
// @Router /concerts/{id} [get]
func (a *API) GetConcert(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.Concerts.Get(r.Context(), scopeOf(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// @Summary Cancel a concert
// @Tags Concerts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Concert UUID"
// @Success 200 {object} model.Concert
// @Router /concerts/{id}/cancel [post]
func (a *API) CancelConcert(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.Concerts.Cancel(r.Context(), scopeOf(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// @Summary Record the caller's attendance answer
// @Tags Attendance
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Concert UUID"
// @Param memberID path string true "Member UUID, must be the caller"
// @Param body body AttendanceRequest true "Answer"
// @Success 200 {object} model.AttendanceRecord
// @Router /concerts/{id}/attendance/{memberID} [put]
func (a *API) SetAttendance(w http.ResponseWriter, r *http.Request) {
	concertID, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	memberID, err := pathUUID(r, "memberID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var body AttendanceRequest
	if err := decode(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	if body.Attending == nil {
		a.writeError(w, r, model.InvalidInput("attending is required"))
		return
	}

	rec, err := a.Ledger.SetAttendance(r.Context(), scopeOf(r), concertID, memberID, *body.Attending)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// @Summary Number of members attending
// @Tags Attendance
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Concert UUID"
// @Success 200 {object} CountResponse
// @Router /concerts/{id}/attendance/count [get]
func (a *API) CountConfirmed(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	n, err := a.Ledger.CountConfirmed(r.Context(), scopeOf(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{ConcertID: id, Confirmed: n})
}

// @Summary Roster of members attending
// @Tags Attendance
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Concert UUID"
// @Success 200 {array} model.Attendee
// @Router /concerts/{id}/attendees [get]
func (a *API) ListAttendees(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.Ledger.ListAttendees(r.Context(), scopeOf(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary Current choir branding
// @Tags Configuration
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} model.TenantConfiguration
// @Router /config [get]
func (a *API) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.Live.Load(r.Context(), scopeOf(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// @Summary Save choir branding
// @Tags Configuration
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body model.ConfigurationFields true "Branding"
// @Success 200 {object} model.TenantConfiguration
// @Router /config [put]
func (a *API) SaveConfiguration(w http.ResponseWriter, r *http.Request) {
	var body model.ConfigurationFields
	if err := decode(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	cfg, err := a.Live.Save(r.Context(), scopeOf(r), body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
