package config

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".covermon.yaml"

const publicAPIURL = "https://api.github.com"

// Loader layers defaults, the YAML file and GitHub Actions inputs.
// Getenv defaults to os.Getenv.
type Loader struct {
	Getenv func(string) string
}

type fileConfig struct {
	Comment            *bool         `yaml:"comment,omitempty"`
	Check              *bool         `yaml:"check,omitempty"`
	CloverFile         string        `yaml:"clover_file,omitempty"`
	OriginalCloverFile string        `yaml:"original_clover_file,omitempty"`
	ThresholdAlert     *int          `yaml:"threshold_alert,omitempty"`
	ThresholdWarning   *int          `yaml:"threshold_warning,omitempty"`
	StatusContext      string        `yaml:"status_context,omitempty"`
	CommentContext     string        `yaml:"comment_context,omitempty"`
	CommentMode        string        `yaml:"comment_mode,omitempty"`
	Baseline           *fileBaseline `yaml:"baseline,omitempty"`
}

type fileBaseline struct {
	Remote bool   `yaml:"remote"`
	Bucket string `yaml:"bucket,omitempty"`
}

func (l Loader) getenv(key string) string {
	if l.Getenv != nil {
		return l.Getenv(key)
	}
	return os.Getenv(key)
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load returns the layered config. A missing file at the default path is
// not an error; a missing file at any other path is.
func (l Loader) Load(path string) (application.Config, error) {
	cfg := application.DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 - user supplied config path
		switch {
		case err == nil:
			var fc fileConfig
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return application.Config{}, errors.Mark(errors.Wrapf(err, "parse config %s", path), application.ErrInvalidConfig)
			}
			fc.apply(&cfg)
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		case errors.Is(err, os.ErrNotExist):
			return application.Config{}, errors.Mark(errors.Wrapf(err, "config %s", path), application.ErrConfigNotFound)
		default:
			return application.Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	if err := l.applyInputs(&cfg); err != nil {
		return application.Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *application.Config) {
	if fc.Comment != nil {
		cfg.Comment = *fc.Comment
	}
	if fc.Check != nil {
		cfg.Check = *fc.Check
	}
	setString(&cfg.CloverFile, fc.CloverFile)
	setString(&cfg.OriginalCloverFile, fc.OriginalCloverFile)
	if fc.ThresholdAlert != nil {
		cfg.ThresholdAlert = *fc.ThresholdAlert
	}
	if fc.ThresholdWarning != nil {
		cfg.ThresholdWarning = *fc.ThresholdWarning
	}
	setString(&cfg.StatusContext, fc.StatusContext)
	setString(&cfg.CommentContext, fc.CommentContext)
	if fc.CommentMode != "" {
		cfg.CommentMode, _ = domain.ParseStrategy(fc.CommentMode)
	}
	if fc.Baseline != nil {
		cfg.Baseline = application.BaselineConfig{Remote: fc.Baseline.Remote, Bucket: fc.Baseline.Bucket}
	}
}

// applyInputs reads INPUT_<NAME> variables the way the Actions runner sets
// them for `with:` inputs. Unset or empty inputs keep the previous layer.
func (l Loader) applyInputs(cfg *application.Config) error {
	input := func(name string) string {
		return strings.TrimSpace(l.getenv("INPUT_" + strings.ToUpper(name)))
	}

	var errs []string
	boolean := func(name string, dst *bool) {
		if v := input(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, name+"="+strconv.Quote(v)+" is not a boolean")
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v := input(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, name+"="+strconv.Quote(v)+" is not an integer")
				return
			}
			*dst = n
		}
	}

	boolean("comment", &cfg.Comment)
	boolean("check", &cfg.Check)
	setString(&cfg.CloverFile, input("clover_file"))
	setString(&cfg.OriginalCloverFile, input("original_clover_file"))
	integer("threshold_alert", &cfg.ThresholdAlert)
	integer("threshold_warning", &cfg.ThresholdWarning)
	setString(&cfg.StatusContext, input("status_context"))
	setString(&cfg.CommentContext, input("comment_context"))
	if v := input("comment_mode"); v != "" {
		cfg.CommentMode, _ = domain.ParseStrategy(v)
	}
	boolean("baseline_remote", &cfg.Baseline.Remote)
	setString(&cfg.Baseline.Bucket, input("baseline_bucket"))

	setString(&cfg.GitHubToken, l.getenv("GITHUB_TOKEN"))
	setString(&cfg.GitHubToken, input("github_token"))
	if api := strings.TrimRight(l.getenv("GITHUB_API_URL"), "/"); api != "" && api != publicAPIURL {
		cfg.APIURL = api
	}

	if len(errs) > 0 {
		return errors.Mark(errors.Newf("invalid inputs: %s", strings.Join(errs, ", ")), application.ErrInvalidConfig)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Write encodes cfg as a config file. The token is never written.
func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Comment:            &cfg.Comment,
		Check:              &cfg.Check,
		CloverFile:         cfg.CloverFile,
		OriginalCloverFile: cfg.OriginalCloverFile,
		ThresholdAlert:     &cfg.ThresholdAlert,
		ThresholdWarning:   &cfg.ThresholdWarning,
		StatusContext:      cfg.StatusContext,
		CommentContext:     cfg.CommentContext,
		CommentMode:        string(cfg.CommentMode),
		Baseline:           &fileBaseline{Remote: cfg.Baseline.Remote, Bucket: cfg.Baseline.Bucket},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
