package core

import "github.com/google/uuid"

// elizaNamespace scopes deterministic ids so they cannot collide with ids
// minted by other systems hashing the same strings.
var elizaNamespace = uuid.MustParse("5b8f3f24-7a6a-4d2a-9c6b-1f6e1d1b9f0a")

// StringToUUID derives a stable id from arbitrary text. Identical input
// always yields the identical id; the knowledge loader relies on this for
// idempotent document creation.
func StringToUUID(s string) uuid.UUID {
	return uuid.NewSHA1(elizaNamespace, []byte(s))
}
