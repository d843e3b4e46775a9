package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = `
app:
  http_addr: ":8080"
storage:
  driver: mongo
mongo:
  uri: mongodb://localhost:27017
  database: orders
security:
  jwt_secret: base-secret
  ttl: 30m
payment:
  provider: fake
pricing:
  max_concurrent_lookups: 1
`

func writeConfigs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoad_BaseOnly(t *testing.T) {
	dir := writeConfigs(t, map[string]string{"base.yaml": testBase})

	cfg, err := Load(dir, "dev")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Security.TTL)
	assert.Equal(t, 1, cfg.Pricing.MaxConcurrentLookups)
}

func TestLoad_EnvFileAndVariablesOverride(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"base.yaml": testBase,
		"staging.yaml": `
pricing:
  max_concurrent_lookups: 4
security:
  accounts:
    - id: admin
      secret: s3cret
      role: admin
`,
	})
	t.Setenv("ORDERAPI_SECURITY__JWT_SECRET", "from-env")

	cfg, err := Load(dir, "staging")

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pricing.MaxConcurrentLookups)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	require.Len(t, cfg.Security.Accounts, 1)
	assert.Equal(t, "admin", cfg.Security.Accounts[0].Role)
}

func TestLoad_MissingBase(t *testing.T) {
	_, err := Load(t.TempDir(), "dev")
	assert.ErrorContains(t, err, "load base")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.App.HTTPAddr = ":8080"
		c.Storage.Driver = "mysql"
		c.MySQL.DSN = "user:pw@tcp(localhost:3306)/orders"
		c.Security.JWTSecret = "x"
		c.Payment.Provider = "fake"
		return c
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Storage.Driver = "postgres"
	assert.ErrorContains(t, c.Validate(), "storage.driver")

	c = valid()
	c.MySQL.DSN = ""
	assert.ErrorContains(t, c.Validate(), "mysql.dsn")

	c = valid()
	c.Payment.Provider = "stripe"
	assert.ErrorContains(t, c.Validate(), "stripe_secret_key")

	c = valid()
	c.Security.JWTSecret = ""
	assert.ErrorContains(t, c.Validate(), "jwt_secret")
}
