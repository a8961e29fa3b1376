package standingsadapters

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAdminDirectory_IsAdmin(t *testing.T) {
	faker := gofakeit.New(42)
	admin := faker.Username()
	stranger := admin + "-not"

	dir := NewStaticAdminDirectory([]string{" " + admin + " ", "", "  "})
	assert.Equal(t, 1, dir.Len())

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "configured admin", id: admin, want: true},
		{name: "surrounding whitespace", id: "\t" + admin, want: true},
		{name: "unknown actor", id: stranger, want: false},
		{name: "empty actor", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.IsAdmin(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
