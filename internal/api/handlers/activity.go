package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/service"
)

type ActivityHandler struct {
	resolver *service.ScheduleResolver
	now      func() time.Time
}

func NewActivityHandler(resolver *service.ScheduleResolver) *ActivityHandler {
	return &ActivityHandler{resolver: resolver, now: time.Now}
}

type scheduleSlot struct {
	Range    string `json:"range"`
	Activity string `json:"activity"`
}

type activityResponse struct {
	At        time.Time      `json:"at"`
	Day       int            `json:"day"`
	Activity  string         `json:"activity,omitempty"`
	Scheduled bool           `json:"scheduled"`
	Schedule  []scheduleSlot `json:"schedule"`
}

// Get resolves the activity now, or at the RFC 3339 time given in ?at=.
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be an RFC 3339 timestamp")
			return
		}
		at = t
	}

	activity, ok := h.resolver.Resolve(at)
	day := domain.ScheduleDay(h.resolver.InLocation(at))

	entries := h.resolver.ScheduleForDay(day)
	slots := make([]scheduleSlot, 0, len(entries))
	for _, e := range entries {
		slots = append(slots, scheduleSlot{Range: e.Range.String(), Activity: e.Activity})
	}

	writeJSON(w, http.StatusOK, activityResponse{
		At:        at,
		Day:       day,
		Activity:  activity,
		Scheduled: ok,
		Schedule:  slots,
	})
}
