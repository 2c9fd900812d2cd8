package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".covermon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `comment: true
check: false
clover_file: coverage/clover.xml
original_clover_file: base/clover.xml
threshold_alert: 80
comment_context: Unit tests
comment_mode: update
baseline:
  remote: true
  bucket: ci-coverage
`)

	cfg, err := Loader{Getenv: env(nil)}.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Comment)
	assert.False(t, cfg.Check)
	assert.Equal(t, "coverage/clover.xml", cfg.CloverFile)
	assert.Equal(t, "base/clover.xml", cfg.OriginalCloverFile)
	assert.Equal(t, 80, cfg.ThresholdAlert)
	assert.Equal(t, application.DefaultThresholdWarning, cfg.ThresholdWarning)
	assert.Equal(t, application.DefaultContext, cfg.StatusContext)
	assert.Equal(t, "Unit tests", cfg.CommentContext)
	assert.Equal(t, domain.StrategyUpdate, cfg.CommentMode)
	assert.Equal(t, application.BaselineConfig{Remote: true, Bucket: "ci-coverage"}, cfg.Baseline)
}

func TestLoadInputsOverrideFile(t *testing.T) {
	path := writeConfig(t, "clover_file: from-file.xml\ncomment_mode: insert\n")

	cfg, err := Loader{Getenv: env(map[string]string{
		"INPUT_CLOVER_FILE":          "from-input.xml",
		"INPUT_ORIGINAL_CLOVER_FILE": "base.xml",
		"INPUT_COMMENT":              "true",
		"INPUT_CHECK":                "true",
		"INPUT_THRESHOLD_WARNING":    "40",
		"INPUT_COMMENT_MODE":         "whatever",
		"INPUT_GITHUB_TOKEN":         "input-token",
		"GITHUB_TOKEN":               "env-token",
		"GITHUB_API_URL":             "https://ghe.example.com/api/v3/",
	})}.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-input.xml", cfg.CloverFile)
	assert.Equal(t, "base.xml", cfg.OriginalCloverFile)
	assert.True(t, cfg.Comment)
	assert.True(t, cfg.Check)
	assert.Equal(t, 40, cfg.ThresholdWarning)
	assert.Equal(t, domain.StrategyReplace, cfg.CommentMode)
	assert.Equal(t, "input-token", cfg.GitHubToken)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.APIURL)
}

func TestLoadPublicAPIURLIsDefault(t *testing.T) {
	cfg, err := Loader{Getenv: env(map[string]string{"GITHUB_API_URL": "https://api.github.com"})}.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.APIURL)
}

func TestLoadInvalidInputs(t *testing.T) {
	_, err := Loader{Getenv: env(map[string]string{
		"INPUT_COMMENT":         "yes please",
		"INPUT_THRESHOLD_ALERT": "ninety",
	})}.Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrInvalidConfig))
	assert.Contains(t, err.Error(), `comment="yes please" is not a boolean`)
	assert.Contains(t, err.Error(), `threshold_alert="ninety" is not an integer`)
}

func TestLoadMissingDefaultPathUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Loader{Getenv: env(nil)}.Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, application.DefaultConfig(), cfg)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Loader{Getenv: env(nil)}.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrConfigNotFound))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "clover_file: [unterminated\n")
	_, err := Loader{Getenv: env(nil)}.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrInvalidConfig))
}

func TestWriteConfigRoundTrip(t *testing.T) {
	cfg := application.DefaultConfig()
	cfg.CloverFile = "coverage/clover.xml"
	cfg.OriginalCloverFile = "base/clover.xml"
	cfg.Comment = true
	cfg.GitHubToken = "secret"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), "clover_file: coverage/clover.xml")
	assert.Contains(t, buf.String(), "comment_mode: replace")
	assert.NotContains(t, buf.String(), "secret")

	path := writeConfig(t, buf.String())
	loaded, err := Loader{Getenv: env(nil)}.Load(path)
	require.NoError(t, err)
	cfg.GitHubToken = ""
	assert.Equal(t, cfg, loaded)
}

func TestExistsMissing(t *testing.T) {
	ok, err := (Loader{}).Exists(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
}
