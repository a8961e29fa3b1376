package eventbus

import (
	"fmt"
	"strings"
)

// FormatSeasonScopedTopic appends a season id to a base topic:
// "league.standings.updated.v1" + "2026-spring" gives
// "league.standings.updated.v1.2026-spring". Consumers subscribe to one season
// or to all of them with "league.standings.updated.v1.*".
func FormatSeasonScopedTopic(baseTopic, seasonID string) (string, error) {
	if seasonID == "" {
		return "", fmt.Errorf("seasonID cannot be empty for season-scoped topic")
	}
	if strings.ContainsAny(seasonID, ".*> \t") {
		return "", fmt.Errorf("seasonID %q is not a valid subject token", seasonID)
	}
	return baseTopic + "." + seasonID, nil
}
