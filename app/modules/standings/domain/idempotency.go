package standingsdomain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ComputeProcessingHash generates a deterministic hash of a finalized match.
// Re-delivery of the same match hashes identically; a corrected payload under
// the same match id does not.
func ComputeProcessingHash(m FinalizedMatch) string {
	parts := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		parts = append(parts, fmt.Sprintf("%s/%s/%d/%t", p.EntityID, p.PartnershipID, p.Team, p.IsWinner))
	}
	sort.Strings(parts)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%s|%s|%s|%s|", m.MatchID, m.SeasonID, m.DivisionID, m.SportType, m.GameType, m.Status)
	fmt.Fprintf(&sb, "%t|%s|", m.Walkover(), m.WalkoverReason)
	fmt.Fprintf(&sb, "%v|%v|", m.TeamOne, m.TeamTwo)
	fmt.Fprintf(&sb, "%d|%d|", m.DatePlayed.UnixNano(), m.CreatedAt.UnixNano())
	sb.WriteString(strings.Join(parts, ";"))

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// Fingerprint hashes the canonical JSON form of a write set. Slices in a
// WriteSet are sorted and encoding/json sorts map keys, so equal states hash
// equally.
func (w WriteSet) Fingerprint() (string, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("fingerprint write set: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
