package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/gridsweep/internal/store"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// SweepPath is a sweep file or a directory searched for them.
	SweepPath string `validate:"required"`
	// SweepName selects a sweep when the files declare several.
	SweepName string
	// OutputPath overrides the sweep's output file.
	OutputPath string `validate:"omitempty,result_file"`

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	HealthcheckPort int    `validate:"gte=0,lte=65535"`

	Interactive bool
	// Timeout overrides the per-combination timeout of the sweep.
	Timeout time.Duration `validate:"gte=0"`
	// Namespaces override the sweep's implementation namespaces.
	Namespaces []string `validate:"dive,required"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("result_file", validateResultFile)
}

// validateResultFile accepts paths with an extension the result store can
// write.
func validateResultFile(fl validator.FieldLevel) bool {
	_, err := store.CodecFor(fl.Field().String())
	return err == nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
