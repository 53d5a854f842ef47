package service

import (
	"fmt"
	"strings"

	"forgeport/internal/eventlog"
	"forgeport/internal/services/importer/domain"
)

// Template construction is pure: every function takes the logical timestamp
// from the caller and returns an unsigned event. Threading tags reference
// the announcement address and previously published event ids

func repoEUC(meta domain.RepoMeta) string {
	return fmt.Sprintf("%s:%d", domain.PlatformGitHub, meta.ID)
}

func repoAnnouncementTemplate(meta domain.RepoMeta, relays []string, ts int64) *eventlog.Template {
	tags := []eventlog.Tag{
		{"d", meta.Name},
		{"name", meta.Name},
	}
	if meta.Description != "" {
		tags = append(tags, eventlog.Tag{"description", meta.Description})
	}
	tags = append(tags,
		eventlog.Tag{"clone", meta.CloneURL},
		eventlog.Tag{"web", meta.WebURL},
	)
	if len(relays) > 0 {
		tags = append(tags, append(eventlog.Tag{"relays"}, relays...))
	}
	tags = append(tags, eventlog.Tag{"r", repoEUC(meta), "euc"})
	return &eventlog.Template{
		Kind:      eventlog.KindRepoAnnouncement,
		CreatedAt: ts,
		Tags:      tags,
		Content:   "",
	}
}

func repoStateTemplate(meta domain.RepoMeta, headSHA string, ts int64) *eventlog.Template {
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "master"
	}
	tags := []eventlog.Tag{
		{"d", meta.Name},
		{"HEAD", "ref: refs/heads/" + branch},
	}
	if headSHA != "" {
		tags = append(tags, eventlog.Tag{"refs/heads/" + branch, headSHA})
	}
	return &eventlog.Template{
		Kind:      eventlog.KindRepoState,
		CreatedAt: ts,
		Tags:      tags,
		Content:   "",
	}
}

func issueTemplate(is domain.Issue, repoAddr, webURL string, ts int64) *eventlog.Template {
	tags := []eventlog.Tag{
		{"a", repoAddr},
		{"subject", is.Title},
	}
	for _, l := range is.Labels {
		tags = append(tags, eventlog.Tag{"t", l})
	}
	if webURL != "" {
		tags = append(tags, eventlog.Tag{"r", webURL})
	}
	return &eventlog.Template{
		Kind:      eventlog.KindIssue,
		CreatedAt: ts,
		Tags:      tags,
		Content:   issueContent(is),
	}
}

func issueContent(is domain.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", is.Title)
	if is.Body != "" {
		b.WriteString(is.Body)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "*Imported from %s*", is.WebURL)
	return b.String()
}

func pullTemplate(pr domain.PullRequest, repoAddr string, commits []string, ts int64) *eventlog.Template {
	tags := []eventlog.Tag{
		{"a", repoAddr},
		{"subject", pr.Title},
	}
	for _, l := range pr.Labels {
		tags = append(tags, eventlog.Tag{"t", l})
	}
	if pr.HeadRef != "" {
		tags = append(tags, eventlog.Tag{"branch-name", pr.HeadRef})
	}
	if pr.BaseRef != "" {
		tags = append(tags, eventlog.Tag{"base-branch", pr.BaseRef})
	}
	for _, sha := range commits {
		tags = append(tags, eventlog.Tag{"commit", sha})
	}
	if pr.WebURL != "" {
		tags = append(tags, eventlog.Tag{"r", pr.WebURL})
	}
	return &eventlog.Template{
		Kind:      eventlog.KindPullRequest,
		CreatedAt: ts,
		Tags:      tags,
		Content:   pullContent(pr),
	}
}

func pullContent(pr domain.PullRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", pr.Title)
	if pr.Body != "" {
		b.WriteString(pr.Body)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "*Imported from %s*", pr.WebURL)
	return b.String()
}

// statusKind picks the status event kind from an item's terminal state
func statusKind(state string, merged, draft bool) int {
	switch {
	case merged:
		return eventlog.KindStatusApplied
	case strings.EqualFold(state, "closed"):
		return eventlog.KindStatusClosed
	case draft:
		return eventlog.KindStatusDraft
	default:
		return eventlog.KindStatusOpen
	}
}

func statusTemplate(kind int, rootEventID, repoAddr string, ts int64) *eventlog.Template {
	return &eventlog.Template{
		Kind:      kind,
		CreatedAt: ts,
		Tags: []eventlog.Tag{
			{"e", rootEventID, "", "root"},
			{"a", repoAddr},
		},
		Content: "",
	}
}

func commentTemplate(cm domain.Comment, rootEventID, repoAddr string, ts int64) *eventlog.Template {
	tags := []eventlog.Tag{
		{"e", rootEventID, "", "root"},
		{"a", repoAddr},
	}
	if cm.WebURL != "" {
		tags = append(tags, eventlog.Tag{"r", cm.WebURL})
	}
	return &eventlog.Template{
		Kind:      eventlog.KindComment,
		CreatedAt: ts,
		Tags:      tags,
		Content:   cm.Body,
	}
}
