package symbols

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// GenerateID derives a stable, collision-resistant id for a symbol from its
// identity tuple. Two distinct (workspaceID, filePath, name, kind,
// startLine, startColumn) tuples in the same workspace never collide in
// practice: the id is a collision-resistant 64-bit hash of the tuple
// rendered as hex.
func GenerateID(workspaceID, filePath, name string, kind Kind, startLine, startColumn uint32) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d\x00%d", workspaceID, filePath, name, kind, startLine, startColumn)
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.BigEndian.Uint64(sum[:8]))
}

// GenerateRelationshipID derives a stable id for a relationship edge.
func GenerateRelationshipID(workspaceID, fromID, toID string, kind RelationshipKind, filePath string, line uint32) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%d", workspaceID, fromID, toID, kind, filePath, line)
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.BigEndian.Uint64(sum[:8]))
}

// GenerateIdentifierID derives a stable id for an identifier occurrence.
func GenerateIdentifierID(workspaceID, filePath, name string, kind IdentifierKind, line, column uint32) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d\x00%d", workspaceID, filePath, name, kind, line, column)
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.BigEndian.Uint64(sum[:8]))
}
