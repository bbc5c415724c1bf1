package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medcalc/medcalc/internal/platform/auth"
)

// AuditEntry records who ran which calculation, pathway step or parameter
// operation, and how it ended.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string // calculators, algorithms, parameters
	ResourceID string
	Action     string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 request after it completes. Entries are also
// handed to recorder when one is given; recorder failures are logged and
// never fail the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			ctx := req.Context()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Action:     auditAction(req.Method, path),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				StatusCode: status,
			}
			entry.Resource, entry.ResourceID = splitResource(path)
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

// auditAction names the operation. POSTs to a named sub-resource such as
// /calculators/bmi/calculate take that name; other methods map to CRUD verbs.
func auditAction(method, path string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	case http.MethodPost:
		segs := pathSegments(path)
		if len(segs) >= 3 {
			return segs[len(segs)-1]
		}
		return "create"
	default:
		return "read"
	}
}

// splitResource returns the first two segments under /api/v1.
//
//	/api/v1/calculators                -> calculators, ""
//	/api/v1/calculators/bmi/calculate  -> calculators, bmi
func splitResource(path string) (resource, id string) {
	segs := pathSegments(path)
	if len(segs) == 0 {
		return "unknown", ""
	}
	if len(segs) > 1 {
		id = segs[1]
	}
	return segs[0], id
}

func pathSegments(path string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
