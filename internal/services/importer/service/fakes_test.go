package service

import (
	"context"
	"sync"
	"time"

	"forgeport/internal/eventlog"
	"forgeport/internal/modkit"
	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// fakeProvider serves canned data with real pagination semantics
type fakeProvider struct {
	mu sync.Mutex

	login    string
	repo     domain.RepoMeta
	fork     domain.RepoMeta
	issues   []domain.Issue
	pulls    []domain.PullRequest
	comments []domain.Comment
	commits  map[int][]string
	gists    map[string]fakeGist
	bulk     bool

	// failures[method] fails that many calls before succeeding
	failures map[string]int
	failWith error

	calls      map[string]int
	forkCalled bool

	// last owner/name each listing method was pointed at
	listTargets map[string]string

	// onList, when set, runs before every listing call
	onList func(method string)
}

type fakeGist struct {
	owner   string
	content string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		login: "octocat",
		repo: domain.RepoMeta{
			ID:            1,
			Owner:         "octocat",
			Name:          "hello-world",
			FullName:      "octocat/hello-world",
			CloneURL:      "https://github.com/octocat/hello-world.git",
			WebURL:        "https://github.com/octocat/hello-world",
			DefaultBranch: "main",
		},
		commits:     map[int][]string{},
		gists:       map[string]fakeGist{},
		failures:    map[string]int{},
		calls:       map[string]int{},
		listTargets: map[string]string{},
		bulk:        true,
	}
}

func (f *fakeProvider) step(method string) error {
	f.mu.Lock()
	f.calls[method]++
	fail := f.failures[method] > 0
	if fail {
		f.failures[method]--
	}
	hook := f.onList
	f.mu.Unlock()
	if hook != nil {
		hook(method)
	}
	if fail {
		if f.failWith != nil {
			return f.failWith
		}
		return perr.Unavailablef("%s: synthetic outage", method)
	}
	return nil
}

func (f *fakeProvider) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeProvider) noteTarget(method, owner, name string) {
	f.mu.Lock()
	f.listTargets[method] = owner + "/" + name
	f.mu.Unlock()
}

func (f *fakeProvider) listTarget(method string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listTargets[method]
}

func (f *fakeProvider) Name() string { return "github" }

func (f *fakeProvider) ValidateToken(ctx context.Context) (string, error) {
	if err := f.step("validate_token"); err != nil {
		return "", err
	}
	return f.login, nil
}

func (f *fakeProvider) GetRepo(ctx context.Context, owner, name string) (domain.RepoMeta, error) {
	if err := f.step("get_repo"); err != nil {
		return domain.RepoMeta{}, err
	}
	if f.fork.ID != 0 && owner == f.login {
		return f.fork, nil
	}
	return f.repo, nil
}

func (f *fakeProvider) CreateFork(ctx context.Context, owner, name, forkName string) (domain.RepoMeta, error) {
	if err := f.step("create_fork"); err != nil {
		return domain.RepoMeta{}, err
	}
	f.mu.Lock()
	f.forkCalled = true
	if f.fork.ID == 0 {
		f.fork = domain.RepoMeta{
			ID:            f.repo.ID + 1000,
			Owner:         f.login,
			Name:          forkName,
			FullName:      f.login + "/" + forkName,
			DefaultBranch: f.repo.DefaultBranch,
			Fork:          true,
		}
	}
	fork := f.fork
	f.mu.Unlock()
	return fork, nil
}

func page[T any](items []T, pageNum, perPage int) ([]T, bool) {
	start := (pageNum - 1) * perPage
	if start >= len(items) {
		return nil, false
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], end < len(items)
}

func (f *fakeProvider) ListIssues(
	ctx context.Context, owner, name string, pageNum, perPage int, since *time.Time,
) ([]domain.Issue, bool, error) {
	if err := f.step("list_issues"); err != nil {
		return nil, false, err
	}
	f.noteTarget("list_issues", owner, name)
	items, more := page(f.issues, pageNum, perPage)
	return items, more, nil
}

func (f *fakeProvider) ListPullRequests(
	ctx context.Context, owner, name string, pageNum, perPage int,
) ([]domain.PullRequest, bool, error) {
	if err := f.step("list_pulls"); err != nil {
		return nil, false, err
	}
	f.noteTarget("list_pulls", owner, name)
	items, more := page(f.pulls, pageNum, perPage)
	return items, more, nil
}

func (f *fakeProvider) ListIssueComments(
	ctx context.Context, owner, name string, number, pageNum, perPage int,
) ([]domain.Comment, bool, error) {
	if err := f.step("list_issue_comments"); err != nil {
		return nil, false, err
	}
	f.noteTarget("list_issue_comments", owner, name)
	var forParent []domain.Comment
	for _, cm := range f.comments {
		if cm.ParentIssue == number {
			forParent = append(forParent, cm)
		}
	}
	items, more := page(forParent, pageNum, perPage)
	return items, more, nil
}

func (f *fakeProvider) HasBulkComments() bool { return f.bulk }

func (f *fakeProvider) ListAllComments(
	ctx context.Context, owner, name string, pageNum, perPage int, since *time.Time,
) ([]domain.Comment, bool, error) {
	if err := f.step("list_all_comments"); err != nil {
		return nil, false, err
	}
	f.noteTarget("list_all_comments", owner, name)
	items, more := page(f.comments, pageNum, perPage)
	return items, more, nil
}

func (f *fakeProvider) HasCommitListing() bool { return true }

func (f *fakeProvider) ListPRCommits(ctx context.Context, owner, name string, number int) ([]string, error) {
	if err := f.step("list_pr_commits"); err != nil {
		return nil, err
	}
	f.noteTarget("list_pr_commits", owner, name)
	return f.commits[number], nil
}

func (f *fakeProvider) GetGist(ctx context.Context, id string) (string, string, error) {
	if err := f.step("get_gist"); err != nil {
		return "", "", err
	}
	g, ok := f.gists[id]
	if !ok {
		return "", "", perr.NotFoundf("gist %s not found", id)
	}
	return g.owner, g.content, nil
}

var _ domain.Provider = (*fakeProvider)(nil)

// fakePublisher collects published events and can fail selected kinds
type fakePublisher struct {
	mu        sync.Mutex
	events    []*eventlog.Event
	failKinds map[int]bool
}

func (p *fakePublisher) Publish(_ context.Context, ev *eventlog.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failKinds[ev.Kind] {
		return perr.Unavailablef("relay refused kind %d", ev.Kind)
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) published() []*eventlog.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*eventlog.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *fakePublisher) countKind(kind int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// newTestSvc wires a service with fast timings and the given fakes
func newTestSvc(t interface{ Helper() }, provider domain.Provider, pub *fakePublisher, opts ...Option) *Svc {
	return newTestSvcDeps(t, modkit.Deps{}, provider, pub, opts...)
}

// newTestSvcDeps is newTestSvc with explicit deps, for runs with an archive
func newTestSvcDeps(
	t interface{ Helper() }, deps modkit.Deps, provider domain.Provider, pub *fakePublisher, opts ...Option,
) *Svc {
	t.Helper()
	base := []Option{
		WithProviderFactory(func(context.Context, string) domain.Provider { return provider }),
		WithCallbacks(
			func(ctx context.Context, tmpl *eventlog.Template) (*eventlog.Event, error) {
				return sessionKey.Sign(ctx, tmpl)
			},
			pub.Publish,
		),
	}
	return New(deps, Config{
		PageSize:      100,
		BatchSize:     50,
		BatchDelay:    time.Millisecond,
		MaxAttempts:   4,
		RetryBase:     time.Millisecond,
		MinSpacing:    time.Microsecond,
		ProgressEvery: 10,
	}, append(base, opts...)...)
}

// sessionKey is the announcing identity used across service tests
var sessionKey = eventlog.DeriveKeypair("test", "session-owner")

func testConfig() domain.Config {
	return domain.Config{
		MirrorIssues:   true,
		MirrorPulls:    true,
		MirrorComments: true,
		Relays:         []string{"https://relay.test"},
	}
}
