package server

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/iov-one/swapkeep/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		file    string
		env     map[string]string
		want    func() Config
		wantErr *errors.Error
	}{
		"defaults without a file": {
			want: DefaultConfig,
		},
		"file values": {
			file: "listen: \":9000\"\npoll_interval: 2s\ndb_backend: memdb\n",
			want: func() Config {
				c := DefaultConfig()
				c.Listen = ":9000"
				c.PollInterval = 2 * time.Second
				c.DBBackend = BackendMemDB
				return c
			},
		},
		"environment overrides the file": {
			file: "listen: \":9000\"\nlog_level: error\n",
			env: map[string]string{
				"SWAPKEEP_LISTEN":        ":9100",
				"SWAPKEEP_POLL_INTERVAL": "3s",
				"SWAPKEEP_POSTGRES_DSN":  "postgres://localhost/swapkeep",
			},
			want: func() Config {
				c := DefaultConfig()
				c.Listen = ":9100"
				c.PollInterval = 3 * time.Second
				c.LogLevel = "error"
				c.PostgresDSN = "postgres://localhost/swapkeep"
				return c
			},
		},
		"variables without the prefix are ignored": {
			env:  map[string]string{"LISTEN": ":9100"},
			want: DefaultConfig,
		},
		"unknown backend": {
			env:     map[string]string{"SWAPKEEP_DB_BACKEND": "sqlite"},
			wantErr: errors.ErrInput,
		},
		"unknown log level": {
			file:    "log_level: loud\n",
			wantErr: errors.ErrInput,
		},
		"malformed file": {
			file:    "listen: [\n",
			wantErr: errors.ErrInput,
		},
		"malformed variable": {
			env:     map[string]string{"SWAPKEEP_POLL_INTERVAL": "often"},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			home := t.TempDir()
			if tc.file != "" {
				require.NoError(t, ioutil.WriteFile(filepath.Join(home, configFile), []byte(tc.file), 0600))
			}
			got, err := LoadConfig(ctx, home, envconfig.MapLookuper(tc.env))
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want(), got)
		})
	}
}

func TestSaveConfig(t *testing.T) {
	home := t.TempDir()
	conf := DefaultConfig()
	conf.DBBackend = BackendMemDB
	conf.MaxSkew = 90 * time.Second

	require.NoError(t, SaveConfig(home, conf))
	got, err := LoadConfig(context.Background(), home, envconfig.MapLookuper(nil))
	require.NoError(t, err)
	assert.Equal(t, conf, got)
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.Listen = ""
	conf.EventsLimit = 0

	err := conf.Validate()
	require.Error(t, err)
	assert.True(t, errors.ErrEmpty.Is(err))
	assert.True(t, errors.ErrInput.Is(err))
}
