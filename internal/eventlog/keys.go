package eventlog

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	perr "forgeport/internal/platform/errors"
)

// Keypair is a synthetic author identity. The seed is derived from the
// platform username, so the same author always maps to the same pubkey.
// This is a reproducible pseudonym, not a security boundary: anyone who
// knows the username can derive the private key. Real authors take over
// via a verified identity bridge, never via these keys.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  string
}

// DeriveKeypair deterministically derives a keypair for a platform author
func DeriveKeypair(platform, username string) Keypair {
	seed := sha256.Sum256([]byte("forgeport:profile:" + platform + ":" + strings.ToLower(strings.TrimSpace(username))))
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	return Keypair{priv: priv, pub: hex.EncodeToString(pub)}
}

// KeypairFromSecret builds the host identity from a hex-encoded 32-byte seed
func KeypairFromSecret(seedHex string) (Keypair, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(seedHex))
	if err != nil || len(seed) != ed25519.SeedSize {
		return Keypair{}, perr.Validationf("identity seed must be %d hex-encoded bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return Keypair{priv: priv, pub: hex.EncodeToString(pub)}, nil
}

// Pubkey returns the hex public key
func (k Keypair) Pubkey() string { return k.pub }

// Sign signs a template with this keypair; it satisfies Signer so pipelines
// can sign synthetic-author events the same way they sign session events
func (k Keypair) Sign(_ context.Context, t *Template) (*Event, error) {
	if k.priv == nil {
		return nil, perr.Internalf("sign with zero keypair")
	}
	id, err := ComputeID(k.pub, t)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(id)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "event id decode failed")
	}
	sig := ed25519.Sign(k.priv, raw)
	tags := t.Tags
	if tags == nil {
		tags = []Tag{}
	}
	return &Event{
		ID:        id,
		Pubkey:    k.pub,
		CreatedAt: t.CreatedAt,
		Kind:      t.Kind,
		Tags:      tags,
		Content:   t.Content,
		Sig:       hex.EncodeToString(sig),
	}, nil
}
