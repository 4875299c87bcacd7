// Package validate checks and cleans request input before it reaches the engine.
// Every rejection is a *domain.ValidationError.
package validate
