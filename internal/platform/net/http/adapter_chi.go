package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdaptChi adapts a *chi.Mux to a Router
func AdaptChi(m *chi.Mux) Router { return chiRoot{m: m} }

// chiRoot adapts *chi.Mux to Router
type chiRoot struct{ m *chi.Mux }

// chiSub adapts chi.Router to Router while retaining the top-level mux
type chiSub struct {
	parent *chi.Mux
	r      chi.Router
}

// method registers a platform Handler for one HTTP verb on a chi router
func method(r chi.Router, verb, p string, h Handler) {
	r.Method(verb, p, http.HandlerFunc(h))
}

func (c chiRoot) Get(p string, h Handler)     { method(c.m, http.MethodGet, p, h) }
func (c chiRoot) Post(p string, h Handler)    { method(c.m, http.MethodPost, p, h) }
func (c chiRoot) Put(p string, h Handler)     { method(c.m, http.MethodPut, p, h) }
func (c chiRoot) Patch(p string, h Handler)   { method(c.m, http.MethodPatch, p, h) }
func (c chiRoot) Delete(p string, h Handler)  { method(c.m, http.MethodDelete, p, h) }
func (c chiRoot) Head(p string, h Handler)    { method(c.m, http.MethodHead, p, h) }
func (c chiRoot) Options(p string, h Handler) { method(c.m, http.MethodOptions, p, h) }

func (c chiRoot) Handle(p string, h http.Handler)           { c.m.Handle(p, h) }
func (c chiRoot) Use(mw ...func(http.Handler) http.Handler) { c.m.Use(mw...) }

func (c chiRoot) Group(fn func(Router)) {
	c.m.Group(func(sub chi.Router) { fn(chiSub{parent: c.m, r: sub}) })
}

func (c chiRoot) Route(pattern string, fn func(Router)) {
	c.m.Route(pattern, func(sub chi.Router) { fn(chiSub{parent: c.m, r: sub}) })
}

func (c chiRoot) Mux() http.Handler { return c.m }

// Sub router methods

func (c chiSub) Get(p string, h Handler)     { method(c.r, http.MethodGet, p, h) }
func (c chiSub) Post(p string, h Handler)    { method(c.r, http.MethodPost, p, h) }
func (c chiSub) Put(p string, h Handler)     { method(c.r, http.MethodPut, p, h) }
func (c chiSub) Patch(p string, h Handler)   { method(c.r, http.MethodPatch, p, h) }
func (c chiSub) Delete(p string, h Handler)  { method(c.r, http.MethodDelete, p, h) }
func (c chiSub) Head(p string, h Handler)    { method(c.r, http.MethodHead, p, h) }
func (c chiSub) Options(p string, h Handler) { method(c.r, http.MethodOptions, p, h) }

func (c chiSub) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiSub) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiSub) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiSub{parent: c.parent, r: sub}) })
}

func (c chiSub) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiSub{parent: c.parent, r: sub}) })
}

func (c chiSub) Mux() http.Handler { return c.r } // chi.Router implements http.Handler
