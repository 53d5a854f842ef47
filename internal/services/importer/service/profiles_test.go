package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"forgeport/internal/eventlog"
	"forgeport/internal/services/importer/domain"
)

func TestEnsureProfile_GhostFallback(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	svc := newTestSvc(t, fp, &fakePublisher{})
	sess := bridgeSession(fp)

	kp, _, err := svc.ensureProfile(context.Background(), newAbortToken(), sess, domain.Author{})
	if err != nil {
		t.Fatalf("ensureProfile: %v", err)
	}
	ghost := eventlog.DeriveKeypair("github", "ghost")
	if kp.Pubkey() != ghost.Pubkey() {
		t.Fatalf("deleted accounts should map to the ghost identity, got %q", kp.Pubkey())
	}
	if _, ok := sess.profileEvents["github:ghost"]; !ok {
		t.Fatal("no profile event recorded for ghost")
	}
}

func TestEnsureProfile_ReusesKeypair(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	svc := newTestSvc(t, fp, &fakePublisher{})
	sess := bridgeSession(fp)

	first, _, err := svc.ensureProfile(context.Background(), newAbortToken(), sess,
		domain.Author{Username: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := svc.ensureProfile(context.Background(), newAbortToken(), sess,
		domain.Author{Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Pubkey() != second.Pubkey() {
		t.Fatal("same user resolved to two keypairs")
	}
	if len(sess.profileEvents) != 1 {
		t.Fatalf("profile events = %d, want 1", len(sess.profileEvents))
	}
}

func TestProfileTemplate(t *testing.T) {
	t.Parallel()

	author := domain.Author{
		Username:    "Alice",
		DisplayName: "Alice Liddell",
		AvatarURL:   "https://avatars.example/alice.png",
	}
	tmpl, err := profileTemplate(author, "https://github.com/o/r", 40)
	if err != nil {
		t.Fatalf("profileTemplate: %v", err)
	}
	if tmpl.Kind != eventlog.KindProfile {
		t.Fatalf("kind = %d", tmpl.Kind)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(tmpl.Content), &body); err != nil {
		t.Fatalf("content is not json: %v", err)
	}
	if body["name"] != "Alice Liddell" {
		t.Errorf("name = %q", body["name"])
	}
	if body["picture"] != author.AvatarURL {
		t.Errorf("picture = %q", body["picture"])
	}

	// identity tag is lowercased so lookups are case-stable
	found := false
	for _, tag := range tmpl.Tags {
		if len(tag) >= 2 && tag[0] == "i" && tag[1] == "github:alice" {
			found = true
		}
	}
	if !found {
		t.Fatalf("identity tag missing, tags = %v", tmpl.Tags)
	}
}

func TestSessionClock_StrictlyIncreasingAndBehindWallClock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	sess := newSession(newFakeProvider(), domain.RepoRef{Provider: "github"}, testConfig(), now)

	prev := int64(0)
	for i := 0; i < 100; i++ {
		ts := sess.nextTimestamp()
		if ts <= prev {
			t.Fatalf("timestamp %d not strictly increasing after %d", ts, prev)
		}
		if ts >= now.Unix() {
			t.Fatalf("logical timestamp %d reached wall clock %d", ts, now.Unix())
		}
		prev = ts
	}
}
