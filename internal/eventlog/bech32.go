package eventlog

import (
	"encoding/hex"
	"strings"

	perr "forgeport/internal/platform/errors"
)

// Minimal bech32 decoding, enough to turn an npub string from a proof
// document into a raw hex pubkey. Decode-only on purpose: the importer never
// encodes bech32.

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32Gen = []uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= bech32Gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32Decode(s string) (string, []byte, error) {
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return "", nil, perr.InvalidArgf("bech32 mixed case")
	}
	s = strings.ToLower(s)
	pos := strings.LastIndex(s, "1")
	if pos < 1 || pos+7 > len(s) {
		return "", nil, perr.InvalidArgf("bech32 separator misplaced")
	}
	hrp, rest := s[:pos], s[pos+1:]
	data := make([]byte, 0, len(rest))
	for i := 0; i < len(rest); i++ {
		d := strings.IndexByte(bech32Charset, rest[i])
		if d < 0 {
			return "", nil, perr.InvalidArgf("bech32 invalid character %q", rest[i])
		}
		data = append(data, byte(d))
	}
	if bech32Polymod(append(bech32HRPExpand(hrp), data...)) != 1 {
		return "", nil, perr.InvalidArgf("bech32 checksum mismatch")
	}
	return hrp, data[:len(data)-6], nil
}

func convertBits5to8(data []byte) ([]byte, error) {
	var acc, bits uint
	out := make([]byte, 0, len(data)*5/8)
	for _, v := range data {
		acc = acc<<5 | uint(v)
		bits += 5
		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits&0xff))
		}
	}
	// trailing padding bits must be zero
	if bits >= 5 || acc<<(8-bits)&0xff != 0 {
		return nil, perr.InvalidArgf("bech32 invalid padding")
	}
	return out, nil
}

// DecodeNpub decodes an npub1... string into a 64-char hex pubkey
func DecodeNpub(s string) (string, error) {
	hrp, data, err := bech32Decode(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	if hrp != "npub" {
		return "", perr.InvalidArgf("expected npub prefix, got %q", hrp)
	}
	raw, err := convertBits5to8(data)
	if err != nil {
		return "", err
	}
	if len(raw) != 32 {
		return "", perr.InvalidArgf("npub payload is %d bytes, want 32", len(raw))
	}
	return hex.EncodeToString(raw), nil
}
