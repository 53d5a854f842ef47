package httpkit

import "net/http"

// MountUnder mounts a subrouter at prefix, applies the module's middleware
// stack, then hands the scoped router to mount for route registration
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}
