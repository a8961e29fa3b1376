package standingsadapters

import (
	"context"
	"strings"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
)

var _ standingsservice.AdminDirectory = (*StaticAdminDirectory)(nil)

// StaticAdminDirectory adapts the configured admin list to the standings
// service AdminDirectory port.
type StaticAdminDirectory struct {
	admins map[string]struct{}
}

// NewStaticAdminDirectory constructs a directory from admin ids. Blank
// entries are ignored and ids are matched exactly after trimming.
func NewStaticAdminDirectory(adminIDs []string) *StaticAdminDirectory {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return &StaticAdminDirectory{admins: admins}
}

func (d *StaticAdminDirectory) IsAdmin(_ context.Context, adminID string) (bool, error) {
	_, ok := d.admins[strings.TrimSpace(adminID)]
	return ok, nil
}

// Len reports how many admins are configured.
func (d *StaticAdminDirectory) Len() int {
	return len(d.admins)
}
