// Package http provides http transport for imports
package http

import (
	stdctx "context"
	stdhttp "net/http"
	"sync"
	"time"

	"forgeport/internal/modkit/httpkit"
	perr "forgeport/internal/platform/errors"
	"forgeport/internal/platform/logger"
	"forgeport/internal/platform/net/http/bind"
	"forgeport/internal/services/api/imports/domain"
	importerdom "forgeport/internal/services/importer/domain"
)

// Register mounts the imports endpoints on the given router
func Register(r httpkit.Router, importer importerdom.ImporterPort) {
	h := &handlers{importer: importer}

	httpkit.Post(r, "/", h.start)
	httpkit.Delete(r, "/current", h.abort)
	httpkit.Get(r, "/current", h.progress)
	httpkit.Get(r, "/result", h.result)
}

type handlers struct {
	importer importerdom.ImporterPort

	mu         sync.Mutex
	running    bool
	lastResult *importerdom.Result
	lastErr    error
}

// swagger:route POST /imports Imports importsStart
// @Summary Start importing a repository into the event log
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body domain.StartImportInput true "Import request"
// @Success 200 type StartImportResponse accepted
// @Router /imports [post]
func (h *handlers) start(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[domain.StartImportInput](r)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil, perr.Conflictf("an import is already running")
	}
	h.running = true
	h.lastResult = nil
	h.lastErr = nil
	h.mu.Unlock()

	cfg := importerdom.Config{
		MirrorIssues:   in.MirrorIssues,
		MirrorPulls:    in.MirrorPulls,
		MirrorComments: in.MirrorComments,
		ForkIfNotOwner: in.ForkIfNotOwner,
		Since:          in.Since,
		Relays:         in.Relays,
		BatchSize:      in.BatchSize,
		BatchDelay:     time.Duration(in.BatchDelayMS) * time.Millisecond,
		ForkName:       in.ForkName,
	}

	// the run outlives the request; detach it from the request context
	go func() {
		res, err := h.importer.ImportRepository(stdctx.Background(), in.RepoURL, in.Token, cfg)
		h.mu.Lock()
		h.running = false
		h.lastResult = res
		h.lastErr = err
		h.mu.Unlock()
		if err != nil {
			logger.Named("imports").Error().Err(err).Msg("background import ended with error")
		}
	}()

	return domain.StartImportResponse{Started: true, Repo: in.RepoURL}, nil
}

// swagger:route DELETE /imports/current Imports importsAbort
// @Summary Abort the running import
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body domain.AbortInput false "Abort reason"
// @Success 200 type AbortResponse ok
// @Router /imports/current [delete]
func (h *handlers) abort(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[domain.AbortInput](r, bind.JSONOptions{AllowEmptyBody: true, MaxBytes: 1 << 20, DisallowUnknown: true})
	if err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "requested via api"
	}
	h.importer.AbortImport(reason)
	return domain.AbortResponse{Aborted: true}, nil
}

// swagger:route GET /imports/current Imports importsProgress
// @Summary Progress of the running (or last) import
// @Tags Imports
// @Produce json
// @Success 200 type importerdom.Progress ok
// @Router /imports/current [get]
func (h *handlers) progress(_ *stdhttp.Request) (any, error) {
	return h.importer.Snapshot(), nil
}

// swagger:route GET /imports/result Imports importsResult
// @Summary Result of the last completed import
// @Tags Imports
// @Produce json
// @Success 200 type importerdom.Result ok
// @Router /imports/result [get]
func (h *handlers) result(_ *stdhttp.Request) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastErr != nil {
		return nil, h.lastErr
	}
	if h.lastResult == nil {
		return nil, perr.NotFoundf("no completed import yet")
	}
	return h.lastResult, nil
}
