package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "match.events", cfg.KafkaTopic)
	assert.Equal(t, int64(8), cfg.MaxConcurrentMatches)
	assert.Equal(t, int32(20), cfg.PGMaxConns)
	assert.Equal(t, int32(2), cfg.PGMinConns)
	assert.Equal(t, 3100, cfg.APIPort)
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://u:p@db:5432/streaming",
		PGHost:      "ignored",
	}
	assert.Equal(t, "postgres://u:p@db:5432/streaming", cfg.DSN())

	cfg.DatabaseURL = ""
	cfg = &Config{PGHost: "localhost", PGPort: 5432, PGUser: "s", PGPassword: "s", PGDatabase: "streaming"}
	assert.Equal(t, "postgres://s:s@localhost:5432/streaming?sslmode=disable", cfg.DSN())
}

func TestValidate(t *testing.T) {
	valid := Config{FeedOutletKey: "outlet", TournamentID: "epl", MaxConcurrentMatches: 8}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing outlet key", mutate: func(c *Config) { c.FeedOutletKey = "" }, wantErr: "FEED_OUTLET_KEY"},
		{name: "missing tournament", mutate: func(c *Config) { c.TournamentID = "" }, wantErr: "TOURNAMENT_ID"},
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrentMatches = 0 }, wantErr: "MAX_CONCURRENT_MATCHES"},
		{name: "concurrency above bound", mutate: func(c *Config) { c.MaxConcurrentMatches = 17 }, wantErr: "MAX_CONCURRENT_MATCHES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
