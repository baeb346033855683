// Package controllers holds the HTTP actions. Each action binds its
// input, calls one service method and writes the envelope.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
)

// Session keys owned by the actions.
const (
	SessGuestIP        = "guest_ip_address"
	SessPaystackRef    = "paystack_ref"
	SessViewedArticles = "viewed_articles"

	// FlashNotice is the flash key shown once by the next HTML page.
	FlashNotice = "notice"
)

// guestIP is the address guest cart rows are keyed by. It is pinned in
// the session on first use so a changing proxy hop keeps the same cart.
func guestIP(c *ctx.Context) string {
	s := c.Session()
	if ip, ok := s.GetString(SessGuestIP); ok && ip != "" {
		return ip
	}
	ip := c.ClientIP()
	s.Set(SessGuestIP, ip)
	c.SaveSession()
	return ip
}

func cartOwner(c *ctx.Context) services.CartOwner {
	if id := c.Identity(); id.LoggedIn() {
		return services.CartOwner{CustomerID: id.CustomerID}
	}
	return services.CartOwner{IP: guestIP(c)}
}

// formFile returns the named multipart file, or nil when it was not sent.
// The caller closes the returned closer.
func formFile(c *ctx.Context, field string) (*services.Upload, func(), error) {
	f, hdr, err := c.R.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &services.Upload{Filename: hdr.Filename, Size: hdr.Size, Reader: f}, func() { _ = f.Close() }, nil
}

// paramID reads the {id} path parameter, writing 404 when it is invalid.
func paramID(c *ctx.Context, name, what string) (uint, bool) {
	id, ok := c.ParamUint(name)
	if !ok {
		c.NotFound(what + " not found.")
	}
	return id, ok
}
