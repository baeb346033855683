package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/middleware"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(s *services.AuthService) *AuthController {
	return &AuthController{service: s}
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.service.Register(c.Context(), in, guestIP(c))
	if err != nil {
		c.Fail(err)
		return
	}
	ac.signIn(c, res, "Welcome to Wellness 360, "+res.Customer.Name+".")
	c.Created(res)
}

func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.service.Login(c.Context(), in, guestIP(c))
	if err != nil {
		c.Fail(err)
		return
	}
	ac.signIn(c, res, "Welcome back, "+res.Customer.Name+".")
	c.Success(res)
}

// signIn rotates the session id, stores the customer snapshot and leaves
// notice for the next page view.
func (ac *AuthController) signIn(c *ctx.Context, res services.AuthResult, notice string) {
	s := c.Session()
	s.Regenerate()
	middleware.StoreIdentity(s, res.Identity())
	s.Delete(SessGuestIP)
	s.Flash(FlashNotice, notice)
	c.SaveSession()
	logger.WithCtx(c.Context()).Info("customer signed in", "customer_id", res.Customer.ID)
}

func (ac *AuthController) Logout(c *ctx.Context) {
	s := c.Session()
	s.Invalidate()
	s.Flash(FlashNotice, "You have been logged out.")
	c.SaveSession()
	c.Message(http.StatusOK, "Logged out.", nil)
}

// Refresh trades a refresh token for a new token pair. It does not touch
// the session.
func (ac *AuthController) Refresh(c *ctx.Context) {
	var in services.RefreshInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.service.Refresh(c.Context(), in.RefreshToken)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AuthController) Me(c *ctx.Context) {
	me, err := ac.service.Me(c.Context(), c.Identity().CustomerID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(me)
}

func (ac *AuthController) CSRFToken(c *ctx.Context) {
	tok, err := middleware.IssueCSRFToken(c.Session())
	if err != nil {
		c.Fail(err)
		return
	}
	c.SaveSession()
	c.Success(map[string]string{"csrf_token": tok})
}

func (ac *AuthController) UpdateProfile(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	me, err := ac.service.UpdateProfile(c.Context(), c.Identity().CustomerID, in)
	if err != nil {
		c.Fail(err)
		return
	}
	if s := c.Session(); middleware.IdentityFromSession(s).LoggedIn() {
		middleware.StoreIdentity(s, services.AuthResult{Customer: me}.Identity())
		c.SaveSession()
	}
	c.Success(me)
}

func (ac *AuthController) UploadImage(c *ctx.Context) {
	up, done, err := formFile(c, "image")
	defer done()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	if up == nil {
		c.ValidationError(map[string]string{"image": "The image field is required."})
		return
	}
	me, err := ac.service.SetImage(c.Context(), c.Identity().CustomerID, *up)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(me)
}
