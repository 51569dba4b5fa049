package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AvatarBase serves deterministic gradient avatars by seed
const AvatarBase = "https://avatar.vercel.sh/"

// PlaceholderAvatar derives a stable avatar url from the record's id, name and email
func PlaceholderAvatar(id, name, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(id + "|" + name + "|" + email)))
	return AvatarBase + hex.EncodeToString(sum[:8])
}
