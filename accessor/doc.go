// Package accessor provides namespaced, sanitized access to a key-value
// store.
//
// An Accessor owns one storage.Driver. Every operation sanitizes its
// namespace and key, composes the physical key as "namespace:key" and checks
// connectivity and inputs on its own. Failures never cross the accessor
// boundary: write operations report a success flag, reads report absence,
// and the underlying cause is logged.
//
// Hash fields are sanitized with sanitize.Sanitizer.Object and encoded with
// storage.EncodeFields before they are written. Reads decode them with
// storage.DecodeFields, so nested maps and lists come back as structured
// values.
//
// A process-wide accessor is available through Instance and is cleared with
// Reset. New builds independent accessors, which is what tests and the
// hashstore.Database facade use.
package accessor
