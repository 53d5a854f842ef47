// Package api provides the HTTP API for the application
package api

import (
	"crypto/subtle"

	"forgeport/internal/platform/config"
	perrs "forgeport/internal/platform/errors"
	"forgeport/internal/platform/logger"
	phttp "forgeport/internal/platform/net/http"
	"forgeport/internal/platform/net/middleware"
	"forgeport/internal/platform/store"

	"forgeport/internal/modkit"
	"forgeport/internal/modkit/httpkit"
	"forgeport/internal/modkit/module"
	"forgeport/internal/modkit/swaggerkit"

	importsmod "forgeport/internal/services/api/imports/module"
	metamod "forgeport/internal/services/api/meta/module"

	importermod "forgeport/internal/services/importer/module"
	importersvc "forgeport/internal/services/importer/service"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	ImporterOpts   []importersvc.Option
	AdminToken     string
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
	}

	// the importer module owns the running import; the api module fronts it
	importer := importermod.New(deps, importermod.Options{}, opt.ImporterOpts...)
	port := module.MustPortsOf[importermod.Ports](importer).Importer

	imports := importsmod.New(
		deps,
		modkit.WithPorts(importsmod.Ports{Importer: port}),
	)

	meta := metamod.New(deps)

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range []module.Module{meta, importer, imports} {
			module.Register(m.Name(), m.Ports())
		}
		meta.MountRoutes(api)
		importer.MountRoutes(api)

		// import control routes are guarded when an admin token is configured
		if opt.AdminToken != "" {
			httpkit.Protected(api, adminPort(opt.AdminToken), func(gr httpkit.Router) {
				imports.MountRoutes(gr)
			})
			return
		}
		imports.MountRoutes(api)
	})
}

// adminPort authenticates requests with a single static bearer token
func adminPort(token string) middleware.AuthPort {
	want := []byte(token)
	return httpkit.NewPortFunc(func(tok string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(tok), want) != 1 {
			return "", perrs.Unauthorizedf("invalid bearer token")
		}
		return "admin", nil
	})
}
