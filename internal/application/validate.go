package application

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// inputNames maps config fields to the input names users set them with.
var inputNames = map[string]string{
	"APIURL":             "GITHUB_API_URL",
	"CloverFile":         "clover_file",
	"OriginalCloverFile": "original_clover_file",
	"ThresholdAlert":     "threshold_alert",
	"ThresholdWarning":   "threshold_warning",
	"StatusContext":      "status_context",
	"CommentContext":     "comment_context",
	"CommentMode":        "comment_mode",
	"Bucket":             "baseline.bucket",
}

// Validate checks the fully layered configuration. Failures are marked
// with ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.Mark(errors.Wrap(err, "validate config"), ErrInvalidConfig)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}
	if c.NeedsPlatform() && c.GitHubToken == "" {
		problems = append(problems, "github_token is required when comment or check is enabled")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Mark(errors.Newf("invalid configuration: %s", strings.Join(problems, "; ")), ErrInvalidConfig)
}

func describeFieldError(fe validator.FieldError) string {
	name, ok := inputNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required", "required_if":
		return name + " is required"
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 0 and 100, got %v", name, fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed threshold_alert, got %v", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of replace, update, insert, got %q", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}
