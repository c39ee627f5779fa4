package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKeyInFile(t *testing.T) {
	for _, tc := range []struct {
		name     string
		initial  string
		section  string
		key      string
		value    string
		expected string
	}{
		{
			name:     "new file",
			key:      "verbose",
			value:    "true",
			expected: "verbose true\n",
		},
		{
			name:     "replace global in place",
			initial:  "# comment\nverbose false\nlog.level info\n",
			key:      "verbose",
			value:    "true",
			expected: "# comment\nverbose true\nlog.level info\n",
		},
		{
			name:     "insert global before first section",
			initial:  "verbose true\n\n[convert]\nmode u2a\n",
			key:      "log.level",
			value:    "debug",
			expected: "verbose true\nlog.level debug\n\n[convert]\nmode u2a\n",
		},
		{
			name:     "section key is not a global match",
			initial:  "[convert]\nverbose true\n",
			key:      "verbose",
			value:    "false",
			expected: "verbose false\n[convert]\nverbose true\n",
		},
		{
			name:     "replace section key",
			initial:  "verbose true\n[convert]\nmode a2u\n",
			section:  "convert",
			key:      "mode",
			value:    "u2a",
			expected: "verbose true\n[convert]\nmode u2a\n",
		},
		{
			name:     "append missing section",
			initial:  "verbose true\n",
			section:  "convert",
			key:      "mode",
			value:    "u2a",
			expected: "verbose true\n\n[convert]\nmode u2a\n",
		},
		{
			name:     "empty value",
			key:      "script.path",
			expected: "script.path\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config")
			if tc.initial != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte(tc.initial), 0644))
			}

			require.NoError(t, SetKeyInFile(path, tc.section, tc.key, tc.value))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(data))

			cfg, err := LoadFromPath(path)
			require.NoError(t, err)
			got, ok := cfg.GetGlobalOption(tc.key)
			if tc.section != "" {
				got, ok = cfg.Commands[tc.section][tc.key]
			}
			assert.True(t, ok)
			assert.Equal(t, tc.value, got)
		})
	}
}

func TestSetKeyInFile_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- SetKeyInFile(path, "", fmt.Sprintf("key%d", i), fmt.Sprint(i))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		v, ok := cfg.GetGlobalOption(fmt.Sprintf("key%d", i))
		assert.True(t, ok, "key%d lost", i)
		assert.Equal(t, fmt.Sprint(i), v)
	}
	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file left behind")
}
