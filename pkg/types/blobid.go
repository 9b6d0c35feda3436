package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// BlobID is the git object id of a file's content. GitHub tree entries
// carry the same id in their "sha" field, so a fetched file can be checked
// against the tree it was listed in.
type BlobID [sha1.Size]byte

// ComputeBlobID hashes content the way git does: SHA-1("blob <len>\0" + content).
func ComputeBlobID(content []byte) BlobID {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)

	var id BlobID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns the 40-character lowercase hex form.
func (id BlobID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Matches reports whether id equals a tree entry SHA, ignoring case.
func (id BlobID) Matches(sha string) bool {
	return strings.EqualFold(id.Hex(), sha)
}
