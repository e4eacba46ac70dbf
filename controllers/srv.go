// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/borrow"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/db"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/session"
)

// Srv bundles what every controller needs.
type Srv struct {
	Repo      *db.Repo
	Borrow    *borrow.Service
	AppSess   *session.AppSessionStore
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	return &Srv{
		Repo:      repo,
		Borrow:    borrow.NewService(repo),
		AppSess:   a.AppSessions(),
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, role string) error {
	// best effort, a failed stamp must not block login
	_ = s.Repo.TouchUserLogin(ctx, userID)
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, userID, role); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return nil
}

// currentUserID reads the id AuthRequired stashed on the context.
func currentUserID(c *app.Ctx) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}

// writeBorrowError maps core errors onto HTTP statuses:
// validation 400, ownership 403, not found 404, state machine 409.
func writeBorrowError(c *app.Ctx, err error) {
	var ve *borrow.ValidationError
	var te *borrow.InvalidTransitionError
	var se *borrow.InvalidStateError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, borrow.ErrNotRequester):
		c.JSON(http.StatusForbidden, app.H{"error": err.Error()})
	case errors.Is(err, borrow.ErrRequestNotFound),
		errors.Is(err, borrow.ErrDeviceNotFound),
		errors.Is(err, borrow.ErrTimeSlotNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.As(err, &te), errors.As(err, &se):
		c.JSON(http.StatusConflict, app.H{"success": false, "error": err.Error()})
	case errors.Is(err, borrow.ErrReservationTaken):
		c.JSON(http.StatusConflict, app.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
