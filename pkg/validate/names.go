package validate

import (
	"strings"

	"github.com/aretw0/autofix/pkg/domain"
	"k8s.io/apimachinery/pkg/util/validation"
)

// DeploymentName checks that name is a valid Kubernetes object name (DNS-1123 subdomain).
func DeploymentName(name string) error {
	if name == "" {
		return &domain.ValidationError{Field: "deployment", Reason: "is required"}
	}
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return &domain.ValidationError{Field: "deployment", Reason: strings.Join(errs, "; ")}
	}
	return nil
}

// Namespace checks that ns is a valid Kubernetes namespace (DNS-1123 label).
func Namespace(ns string) error {
	if ns == "" {
		return &domain.ValidationError{Field: "namespace", Reason: "is required"}
	}
	if errs := validation.IsDNS1123Label(ns); len(errs) > 0 {
		return &domain.ValidationError{Field: "namespace", Reason: strings.Join(errs, "; ")}
	}
	return nil
}

// Required rejects empty (or whitespace-only) values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

// OneOf rejects values outside allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &domain.ValidationError{
		Field:  field,
		Reason: "unsupported value " + `"` + value + `"` + ", expected one of " + strings.Join(allowed, ", "),
	}
}
