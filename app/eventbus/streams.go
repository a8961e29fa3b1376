package eventbus

import (
	"context"
	"fmt"
)

// LeagueStream captures every subject the league service produces or consumes.
const LeagueStream = "LEAGUE"

// InitializeStreams creates the streams the service needs during startup.
func InitializeStreams(ctx context.Context, bus EventBus) error {
	if err := bus.CreateStream(ctx, LeagueStream, "league.>"); err != nil {
		return fmt.Errorf("initialize %s stream: %w", LeagueStream, err)
	}
	return nil
}
