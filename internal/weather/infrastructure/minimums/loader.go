// Package minimums loads the certification minimums table from YAML.
package minimums

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Conditions(), fl.Field().String())
	})
}

type fileFormat struct {
	Levels map[string]levelMinimums `yaml:"levels" validate:"required,min=1,dive"`
}

type levelMinimums struct {
	MinVisibilityMiles *float64 `yaml:"min_visibility_miles" validate:"required,gte=0"`
	MaxWindKnots       *float64 `yaml:"max_wind_knots" validate:"required,gt=0"`
	MaxCrosswindKnots  *float64 `yaml:"max_crosswind_knots" validate:"omitempty,gt=0"`
	MinCeilingFeet     *float64 `yaml:"min_ceiling_feet" validate:"omitempty,gte=0"`
	AllowedConditions  []string `yaml:"allowed_conditions" validate:"dive,condition"`
	DeniedConditions   []string `yaml:"denied_conditions" validate:"dive,condition"`
}

// LoadFile reads a minimums table from path. An empty path yields the
// built-in table.
func LoadFile(path string) (domain.MinimumsTable, error) {
	if path == "" {
		return domain.DefaultMinimums(), nil
	}
	data, err := security.ReadConfigFile(path, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("read minimums file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML minimums table. Every known
// certification level must be present and no unknown level is accepted.
func Parse(data []byte) (domain.MinimumsTable, error) {
	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidMinimums, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidMinimums, err)
	}

	table := make(domain.MinimumsTable, len(file.Levels))
	var errs []error
	for name, lm := range file.Levels {
		level, err := domain.ParseLevel(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		table[level] = domain.Minimums{
			MinVisibilityMiles: *lm.MinVisibilityMiles,
			MaxWindKnots:       *lm.MaxWindKnots,
			MaxCrosswindKnots:  lm.MaxCrosswindKnots,
			MinCeilingFeet:     lm.MinCeilingFeet,
			AllowedConditions:  lm.AllowedConditions,
			DeniedConditions:   lm.DeniedConditions,
		}
	}
	for _, level := range domain.Levels() {
		if _, ok := table[level]; !ok {
			errs = append(errs, fmt.Errorf("missing level %s", level))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidMinimums, errors.Join(errs...))
	}
	return table, nil
}
