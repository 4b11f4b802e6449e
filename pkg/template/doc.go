// Package template provides the notification template registry and the
// content renderer.
//
// A Template defines the subject, in-app body, and email body for one
// notification type, together with its default priority, target audience, and
// channel flags. The registry keeps one template per type key; templates are
// soft-disabled instead of deleted because queue jobs and history entries
// reference them.
//
// Render performs placeholder substitution:
//
//	template.Render("Hello {Name}", template.Params{"Name": "Dr. X"})
//
// Substitution is deliberately lenient - missing parameters leave the
// placeholder verbatim rather than failing, because call sites are shared
// between templates with different parameter sets.
//
// Seed loads the built-in catalog (catalog.yaml, embedded) at process start,
// skipping types that already exist.
package template
