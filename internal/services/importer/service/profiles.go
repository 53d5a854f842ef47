package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"forgeport/internal/eventlog"
	perr "forgeport/internal/platform/errors"
	"forgeport/internal/services/importer/domain"
)

// profileKey identifies a platform user in the session maps
func profileKey(platform, username string) string {
	return platform + ":" + strings.ToLower(username)
}

// ensureProfile returns the keypair publishing events for author, creating
// the derived identity and its profile event on first sight. Every author
// gets a derived identity, bridged or not; a bridged user's verified pubkey
// is returned alongside so callers can attach a mention tag
func (s *Svc) ensureProfile(
	ctx context.Context, tok *abortToken, sess *session, author domain.Author,
) (eventlog.Keypair, string, error) {
	if author.Username == "" {
		author.Username = "ghost"
	}
	key := profileKey(domain.PlatformGitHub, author.Username)

	bridgedPubkey, err := s.lookupBridge(ctx, tok, sess, author.Username)
	if err != nil {
		return eventlog.Keypair{}, "", err
	}

	if kp, ok := sess.profiles[key]; ok {
		return kp, bridgedPubkey, nil
	}

	kp := eventlog.DeriveKeypair(domain.PlatformGitHub, author.Username)
	sess.profiles[key] = kp

	tmpl, err := profileTemplate(author, sess.repo.WebURL, sess.nextTimestamp())
	if err != nil {
		return eventlog.Keypair{}, "", err
	}
	ev, err := kp.Sign(ctx, tmpl)
	if err != nil {
		return eventlog.Keypair{}, "", perr.Wrapf(err, perr.ErrorCodeUnknown,
			"signing profile for %s", author.Username)
	}
	sess.profileEvents[key] = ev
	return kp, bridgedPubkey, nil
}

func profileTemplate(author domain.Author, repoWebURL string, ts int64) (*eventlog.Template, error) {
	name := author.DisplayName
	if name == "" {
		name = author.Username
	}
	body := map[string]string{
		"name": norm.NFC.String(name),
		"about": fmt.Sprintf(
			"Mirror of the %s account %s, created while importing collaboration history from %s.",
			domain.PlatformGitHub, author.Username, repoWebURL,
		),
	}
	if author.AvatarURL != "" {
		body["picture"] = norm.NFC.String(author.AvatarURL)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "profile content")
	}
	return &eventlog.Template{
		Kind:      eventlog.KindProfile,
		CreatedAt: ts,
		Tags: []eventlog.Tag{
			{"i", domain.PlatformGitHub + ":" + strings.ToLower(author.Username)},
		},
		Content: string(raw),
	}, nil
}
