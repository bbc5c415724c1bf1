package parameter

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/platform/auth"
)

// SessionHeader lets a client keep several parameter sessions. For an
// authenticated user the session lives under the user id, so the header
// can never reach another user's values.
const SessionHeader = "X-Session-ID"

const maxSessionIDLength = 128

// OwnerFromContext resolves whose parameters a request sees:
//
//	user id + session header -> "<user>:<session>"
//	user id only             -> "<user>"
//	session header only      -> "<session>" (anonymous)
//
// When neither is present a new session id is issued in the response header.
func OwnerFromContext(c echo.Context) string {
	sid := c.Request().Header.Get(SessionHeader)
	if len(sid) > maxSessionIDLength {
		sid = ""
	}
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		if sid != "" {
			return uid + ":" + sid
		}
		return uid
	}
	if sid != "" {
		return sid
	}
	if issued, ok := c.Get("session_id").(string); ok && issued != "" {
		return issued
	}
	issued := uuid.NewString()
	c.Set("session_id", issued)
	c.Response().Header().Set(SessionHeader, issued)
	return issued
}
