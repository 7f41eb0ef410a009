package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bloop-build/compilesched/pkg/schederrors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	projectIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("project_id", func(fl validator.FieldLevel) bool {
			return projectIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			d, err := time.ParseDuration(s)
			return err == nil && d >= 0
		})

		validateInst = v
	})

	return validateInst
}

// ValidateDocument performs schema and cross-field validation on a parsed
// document: struct tags, duplicate ids, dangling dependency references, and
// dependency cycles.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return schederrors.NewValidationError("document", "document is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(doc); err != nil {
		return convertValidationError(err)
	}

	index := make(map[string]int, len(doc.Projects))
	for i, p := range doc.Projects {
		if _, exists := index[p.ID]; exists {
			return schederrors.NewValidationError(fieldForProject(i, "id"), fmt.Sprintf("duplicate project id %q", p.ID), nil)
		}
		index[p.ID] = i
	}

	for i, p := range doc.Projects {
		for _, dep := range p.DependsOn {
			if _, ok := index[dep]; !ok {
				return schederrors.NewValidationError(fieldForProject(i, "depends_on"), fmt.Sprintf("references unknown project %q", dep), nil)
			}
		}
	}

	if cycle := detectCycle(doc.Projects); len(cycle) > 0 {
		return schederrors.NewValidationError("projects", fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return schederrors.NewValidationError(field, msg, err)
	}

	return schederrors.NewValidationError("document", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForProject(index int, field string) string {
	return fmt.Sprintf("projects[%d].%s", index, field)
}
