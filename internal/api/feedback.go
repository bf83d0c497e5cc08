package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/feedback"
	"github.com/ashureev/peakchat/internal/identity"
	"github.com/ashureev/peakchat/internal/store"
)

// FeedbackResponse is the body of GET /api/session/feedback.
type FeedbackResponse struct {
	Session         *domain.Session       `json:"session"`
	Feedback        domain.FeedbackResult `json:"feedback"`
	Charts          feedback.Charts       `json:"charts"`
	DurationSeconds int64                 `json:"durationSeconds"`
}

// GetFeedback loads the device's finalized session from its slot and
// returns the scored feedback.
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sess, err := store.NewSlot(h.repo, userID).Load(r.Context())
	if err != nil {
		slog.Error("Failed to load session slot", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "no finished session")
		return
	}

	result, err := h.feedback.Feedback(r.Context(), sess)
	if err != nil {
		if errors.Is(err, feedback.ErrNotFinalized) {
			Error(w, http.StatusConflict, err.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "failed to generate feedback")
		return
	}

	JSON(w, http.StatusOK, FeedbackResponse{
		Session:         sess,
		Feedback:        result,
		Charts:          feedback.BuildCharts(result),
		DurationSeconds: int64(sess.Duration().Seconds()),
	})
}
