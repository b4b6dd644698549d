// Package auth owns login, logout and session refresh. The controller is the
// only writer of the two credential sinks and keeps them consistent: every
// login writes both, every logout clears both.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
	"github.com/digitradex/trade-console/internal/session"
	"github.com/digitradex/trade-console/pkg/utils"
	"go.uber.org/zap"
)

// Navigator performs the navigation side effect of login/logout. The HTTP
// layer supplies a redirect-issuing implementation per request.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// ErrEmptyToken is returned when a login response carries no token
var ErrEmptyToken = errors.New("login response carried no token")

// Config holds auth controller configuration
type Config struct {
	LoginPath   string
	LandingPath string
	DevLogin    bool
}

// Controller mutates the session store and the credential sinks
type Controller struct {
	api    *apiclient.Client
	store  *session.Store
	local  session.Sink
	cfg    Config
	logger *zap.Logger
}

// NewController creates a new auth controller
func NewController(api *apiclient.Client, store *session.Store, local session.Sink, cfg Config, logger *zap.Logger) *Controller {
	return &Controller{
		api:    api,
		store:  store,
		local:  local,
		cfg:    cfg,
		logger: logger,
	}
}

// Login authenticates against the remote API, persists the credential to the
// local sink and the request's cookie mirror, updates the session store
// (which notifies subscribers), and navigates to the landing page.
func (c *Controller) Login(ctx context.Context, email, password string, cookie session.Sink, nav Navigator) error {
	if email == "" || password == "" {
		return errors.New("メールアドレスとパスワードを入力してください")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return errors.New("メールアドレスの形式が正しくありません")
	}

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if resp.Token == "" {
		return ErrEmptyToken
	}

	cred := &models.Credential{Token: resp.Token, User: resp.User}
	if err := c.persist(cred, cookie); err != nil {
		return err
	}

	c.store.Set(cred)
	c.logger.Info("Operator logged in", zap.String("email", email))

	nav.Redirect(c.cfg.LandingPath)
	return nil
}

// DevLogin issues the development credential without calling the remote API.
// Disabled unless the config flag is set.
func (c *Controller) DevLogin(cookie session.Sink, nav Navigator) error {
	if !c.cfg.DevLogin {
		return errors.New("dev login is disabled")
	}

	cred := &models.Credential{
		Token: "dev-auto-login-token",
		User: &models.User{
			ID:    1,
			Name:  "テストユーザー",
			Email: "test@example.com",
			Role:  models.RoleAdmin,
		},
	}
	if err := c.persist(cred, cookie); err != nil {
		return err
	}

	c.store.Set(cred)
	c.logger.Info("Dev auto-login issued")

	nav.Redirect(c.cfg.LandingPath)
	return nil
}

// Logout clears both sinks and the store, then navigates to the login page.
// Idempotent: logging out with no session is not an error.
func (c *Controller) Logout(cookie session.Sink, nav Navigator) error {
	if err := c.local.Clear(); err != nil {
		c.logger.Error("Failed to clear local credential", zap.Error(err))
	}
	if cookie != nil {
		if err := cookie.Clear(); err != nil {
			c.logger.Error("Failed to clear cookie credential", zap.Error(err))
		}
	}

	c.store.Clear()
	c.logger.Info("Operator logged out")

	if nav != nil {
		nav.Redirect(c.cfg.LoginPath)
	}
	return nil
}

// Refresh re-derives session state from the persisted credential, used after
// the storage was mutated outside this controller.
func (c *Controller) Refresh() {
	c.store.Refresh()
}

// VerifyStored checks a stored token against the remote API at login-page
// arrival. An invalid or unverifiable token clears both sinks silently.
func (c *Controller) VerifyStored(ctx context.Context, cookie session.Sink) (bool, error) {
	snap := c.store.Snapshot()
	if snap.Token == "" {
		return false, nil
	}

	valid, err := c.api.Verify(ctx, snap.Token)
	if err != nil || !valid {
		if logoutErr := c.Logout(cookie, nil); logoutErr != nil {
			return false, logoutErr
		}
		return false, nil
	}
	return true, nil
}

func (c *Controller) persist(cred *models.Credential, cookie session.Sink) error {
	if err := c.local.Write(cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	if cookie != nil {
		if err := cookie.Write(cred); err != nil {
			// Keep the sinks consistent: do not leave the local copy behind
			if clearErr := c.local.Clear(); clearErr != nil {
				c.logger.Error("Failed to roll back local credential", zap.Error(clearErr))
			}
			return fmt.Errorf("failed to persist cookie credential: %w", err)
		}
	}
	return nil
}
