// Package gate is the edge request gate: it inspects the credential cookie
// before a protected page is served, ahead of anything the route guard does
// in the rendered tree. The gate fails open — an internal fault must never
// block traffic, the route guard is the backstop.
package gate

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Decision is the outcome of evaluating one request
type Decision struct {
	Redirect bool
	Location string
}

// PassThrough lets the request continue unmodified
var PassThrough = Decision{}

// RedirectTo sends the request elsewhere
func RedirectTo(path string) Decision {
	return Decision{Redirect: true, Location: path}
}

// Gate evaluates requests against the authentication rules
type Gate struct {
	loginPath   string
	landingPath string
	cookieName  string
	allowed     map[string]bool
	logger      *zap.Logger
}

// New creates a gate
func New(loginPath, landingPath, cookieName string, logger *zap.Logger) *Gate {
	return &Gate{
		loginPath:   loginPath,
		landingPath: landingPath,
		cookieName:  cookieName,
		allowed:     make(map[string]bool),
		logger:      logger,
	}
}

// Allow exempts an exact path from the gate, for routes that must stay
// reachable without a credential (the dev login endpoint). Call during
// setup, before the gate serves traffic.
func (g *Gate) Allow(path string) {
	g.allowed[path] = true
}

// Decide is the pure decision function. Rules in order:
//  1. login path with a token → redirect to the landing page
//  2. any other path without a token → redirect to the login path
//  3. pass through
func (g *Gate) Decide(cookieToken, requestPath string) Decision {
	hasToken := cookieToken != ""
	isLoginPath := requestPath == g.loginPath

	if isLoginPath && hasToken {
		return RedirectTo(g.landingPath)
	}
	if !isLoginPath && !hasToken {
		return RedirectTo(g.loginPath)
	}
	return PassThrough
}

// Middleware applies the gate to incoming requests. Any panic inside the
// decision degrades to pass-through, logged for operators.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.safeDecide(c)
		if decision.Redirect {
			c.Redirect(http.StatusFound, decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (g *Gate) safeDecide(c *gin.Context) (decision Decision) {
	// Captured before the defer: a fault that corrupted the request must
	// not take the recover handler down with it.
	path := requestPath(c)
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Edge gate fault, passing request through",
				zap.Any("panic", r),
				zap.String("path", path))
			decision = PassThrough
		}
	}()

	if isExemptPath(path) || g.allowed[path] {
		return PassThrough
	}

	token, err := c.Cookie(g.cookieName)
	if err != nil {
		token = ""
	}
	return g.Decide(token, path)
}

// requestPath reads the URL path without trusting the request to be intact.
func requestPath(c *gin.Context) string {
	if c.Request == nil || c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.Path
}

// isExemptPath skips static assets and health probes, mirroring the matcher
// the gate is mounted with.
func isExemptPath(path string) bool {
	if path == "/health" || path == "/favicon.ico" {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}
