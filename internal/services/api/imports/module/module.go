// Package module wires the imports endpoints into the API using modkit
package module

import (
	"net/http"

	modkit "forgeport/internal/modkit"
	"forgeport/internal/modkit/httpkit"
	str "forgeport/internal/platform/strings"

	importshttp "forgeport/internal/services/api/imports/http"
	importerdom "forgeport/internal/services/importer/domain"
)

// Module implements the imports module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the imports module. The importer port is injected by the
// host via modkit.WithPorts(Ports{Importer: ...})
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("imports"),
		modkit.WithPrefix("/imports"),
	}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Importer == nil {
		panic("imports module requires an importer port")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		ports:     ports,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		importshttp.Register(r, ports.Importer)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Ports defines the imports module ports
type Ports struct {
	Importer importerdom.ImporterPort
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "imports") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
