package registryctl

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cmd := NewRootCommand(logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempRegistry(t *testing.T) (dsn, lock string) {
	t.Helper()
	dir := t.TempDir()
	return "file:" + filepath.Join(dir, "registry.db"), filepath.Join(dir, "seed.lock")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"seed", "list", "schema", "stats"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestSeedThenQuery(t *testing.T) {
	dsn, lock := tempRegistry(t)
	common := []string{"--driver", "sqlite", "--dsn", dsn}

	out, err := run(t, append([]string{"seed", "--lock", lock}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "seeded 5 dApps, 7 interfaces, 3 pools\n", out)

	out, err = run(t, append([]string{"list", "--category", "dex", "--format", "json"}, common...)...)
	require.NoError(t, err)
	var dapps []models.DApp
	require.NoError(t, json.Unmarshal([]byte(out), &dapps))
	require.Len(t, dapps, 3)
	assert.Equal(t, "minswap-mainnet", dapps[0].ID)

	out, err = run(t, append([]string{"schema", "jpgstore-mainnet", "buy_nft"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Buy Nft on JPG Store")
	assert.Contains(t, out, "maxPrice")

	out, err = run(t, append([]string{"stats"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "dApps: 5 (5 active)")
	assert.Contains(t, out, "pools: 3")
}

func TestSeedFromFile(t *testing.T) {
	dsn, lock := tempRegistry(t)
	file := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
dapps:
  - id: indigo-mainnet
    name: Indigo
    category: other
    isActive: true
    interfaces:
      - actionType: mint
        inputSchema:
          amount: {type: number, required: true}
`), 0o644))

	out, err := run(t, "seed", "--file", file, "--lock", lock, "--driver", "sqlite", "--dsn", dsn, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dapps":1,"interfaces":1,"pools":0}`, out)
}

func TestSeedRespectsLock(t *testing.T) {
	dsn, lock := tempRegistry(t)

	held := flock.New(lock)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	_, err = run(t, "seed", "--lock", lock, "--wait", "0s", "--driver", "sqlite", "--dsn", dsn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another seed is running")
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "stats", "--format", "xml", "--driver", "sqlite", "--dsn", ":memory:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSchemaUnknownDApp(t *testing.T) {
	dsn, _ := tempRegistry(t)
	_, err := run(t, "schema", "nope", "swap", "--driver", "sqlite", "--dsn", dsn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dApp nope")
}
