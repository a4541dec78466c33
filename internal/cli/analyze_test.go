package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/paper-digest/internal/collection"
	"github.com/rcliao/paper-digest/internal/store"
	"github.com/rcliao/paper-digest/internal/zoterotest"
)

func TestSelectCollections(t *testing.T) {
	fx := zoterotest.New(t)
	ml := fx.AddCollection("COLLML01", "Machine Learning", 0)
	fx.AddCollection("COLLRD01", "Reading", ml)
	fx.AddCollection("COLLRD02", "Reading", 0)
	fx.AddCollection("COLLPH01", "Physics", 0)

	s, err := store.Open(fx.Path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	r, err := collection.Load(context.Background(), s, nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		selection []string
		want      []string
		wantErr   bool
	}{
		{"empty selects nothing", nil, nil, false},
		{"by key", []string{"COLLPH01"}, []string{"COLLPH01"}, false},
		{"by name ignoring case", []string{"machine learning"}, []string{"COLLML01"}, false},
		{"shared name selects all", []string{"Reading"}, []string{"COLLRD01", "COLLRD02"}, false},
		{"duplicates collapse", []string{"Physics", "COLLPH01", " physics "}, []string{"COLLPH01"}, false},
		{"blank entries skipped", []string{"", "  "}, nil, false},
		{"unknown name", []string{"Chemistry"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectCollections(r, tt.selection)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown collection")
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}
