package service

import (
	"context"
	"strings"

	"forgeport/internal/eventlog"
	"forgeport/internal/services/importer/domain"
)

// bridgeSentence is the exact proof-of-control sentence a user publishes in
// a gist to bind their platform account to an event-log identity
const bridgeSentence = "Verifying that I control the following Nostr public key:"

// lookupBridge resolves a platform username to a verified event-log pubkey,
// or "" when the user has not bridged. Results, including misses, are cached
// for the run; bridge failures degrade to a miss rather than failing the
// import
func (s *Svc) lookupBridge(
	ctx context.Context, tok *abortToken, sess *session, username string,
) (string, error) {
	if s.fetch == nil {
		return "", nil
	}
	if err := tok.Check(); err != nil {
		return "", err
	}

	key := profileKey(domain.PlatformGitHub, username)
	if pub, ok := sess.bridged[key]; ok {
		return pub, nil
	}
	if sess.bridgeMiss[key] {
		return "", nil
	}

	pub := s.verifyBridge(ctx, sess, username)
	if pub == "" {
		sess.bridgeMiss[key] = true
		return "", nil
	}
	sess.bridged[key] = pub
	s.log.Debug().Str("username", username).Str("pubkey", pub).Msg("identity bridged")
	return pub, nil
}

// verifyBridge does the two-sided check: a profile event on the log claims
// the platform identity and points at a gist, and the gist, owned by that
// same platform user, names the profile's pubkey
func (s *Svc) verifyBridge(ctx context.Context, sess *session, username string) string {
	events, err := s.fetch(ctx, eventlog.Filter{
		Kinds: []int{eventlog.KindProfile},
		Tags:  map[string][]string{"i": {domain.PlatformGitHub + ":" + strings.ToLower(username)}},
		Limit: 10,
	})
	if err != nil {
		s.log.Debug().Err(err).Str("username", username).Msg("bridge lookup failed")
		return ""
	}

	// newest claim wins
	var candidate *eventlog.Event
	for i := range events {
		ev := &events[i]
		if candidate == nil || ev.CreatedAt > candidate.CreatedAt {
			candidate = ev
		}
	}
	if candidate == nil {
		return ""
	}

	var gistID string
	for _, t := range candidate.Tags {
		if len(t) >= 3 && t[0] == "i" &&
			strings.EqualFold(t[1], domain.PlatformGitHub+":"+strings.ToLower(username)) {
			gistID = t[2]
			break
		}
	}
	if gistID == "" {
		return ""
	}

	owner, content, err := sess.provider.GetGist(ctx, gistID)
	if err != nil {
		s.log.Debug().Err(err).Str("gist", gistID).Msg("bridge gist fetch failed")
		return ""
	}
	if !strings.EqualFold(owner, username) {
		return ""
	}

	npub := extractNpub(content)
	if npub == "" {
		return ""
	}
	pub, err := eventlog.DecodeNpub(npub)
	if err != nil || pub != candidate.Pubkey {
		return ""
	}
	return pub
}

// extractNpub pulls the npub token that follows the proof sentence
func extractNpub(content string) string {
	idx := strings.Index(content, bridgeSentence)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(content[idx+len(bridgeSentence):])
	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "npub1") {
		return ""
	}
	return fields[0]
}

// mentionTag links an imported event to the author's bridged identity
func mentionTag(pubkey string) eventlog.Tag {
	return eventlog.Tag{"p", pubkey, "", "mention"}
}
