// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hashutil derives stable content hashes used to namespace tuner ids.
package hashutil

import (
	"crypto/md5" // #nosec G501 -- namespacing only, not a security boundary
	"encoding/hex"
)

// MD5Hex returns the lowercase hex MD5 digest of s (32 characters).
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s)) // #nosec G401
	return hex.EncodeToString(sum[:])
}
