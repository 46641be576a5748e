package handler

import (
	"fmt"
	"lms-auth-api/common"
	"lms-auth-api/logger"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// Trusted identity headers relayed to downstream services. Downstream must
// only accept them from this proxy, never from clients directly.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRoles = "X-User-Roles"
)

// NewDownstreamProxy relays authenticated traffic to the downstream LMS
// services. Client-supplied identity headers are always stripped; the
// validated identity from the request context is the only source of the
// trusted headers.
func NewDownstreamProxy(target string) (http.Handler, error) {
	base, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid downstream base url: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(base)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)

		req.Header.Del(HeaderUserID)
		req.Header.Del(HeaderUserRoles)

		if identity, ok := IdentityFromContext(req.Context()); ok {
			req.Header.Set(HeaderUserID, identity.UserID.String())
			req.Header.Set(HeaderUserRoles, strings.Join(identity.Roles, ","))
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Log.WithError(err).Error("Downstream proxy request failed")
		common.NewAppError(http.StatusBadGateway, "upstream_error", "Downstream service is unavailable", nil).Send(w)
	}

	return proxy, nil
}
