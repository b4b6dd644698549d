package http

import (
	"github.com/digitradex/trade-console/internal/models"
	"github.com/gin-gonic/gin"
)

// CookieSink mirrors the session credential into the browser cookie for one
// request. The cookie carries the token only; the operator identity lives in
// the local store.
type CookieSink struct {
	c      *gin.Context
	name   string
	maxAge int
}

// NewCookieSink creates a sink over a request's cookie jar
func NewCookieSink(c *gin.Context, name string, maxAge int) *CookieSink {
	return &CookieSink{c: c, name: name, maxAge: maxAge}
}

// Read returns the credential held by the request cookie, nil when absent
func (s *CookieSink) Read() (*models.Credential, error) {
	token, err := s.c.Cookie(s.name)
	if err != nil || token == "" {
		return nil, nil
	}
	return &models.Credential{Token: token}, nil
}

// Write sets the credential cookie on the response
func (s *CookieSink) Write(cred *models.Credential) error {
	s.c.SetCookie(s.name, cred.Token, s.maxAge, "/", "", false, true)
	return nil
}

// Clear expires the credential cookie
func (s *CookieSink) Clear() error {
	s.c.SetCookie(s.name, "", -1, "/", "", false, true)
	return nil
}

// redirectRecorder captures the navigation the auth controller requests so
// the handler can emit it, either as an HTTP redirect or a JSON location.
type redirectRecorder struct {
	path string
}

func (r *redirectRecorder) Redirect(path string) {
	r.path = path
}
