// Package sanitize strips a configurable set of characters from values before
// they reach the store.
//
// A Sanitizer is built from a Denylist and compiles it into a single regular
// expression character class. Strings are cleaned with one global replace
// pass. Lists and maps are walked recursively; maps nested inside a list or a
// map are sanitized and then serialized to a JSON string, which is how the
// store keeps composite hash fields.
//
// Sanitization is idempotent. A string that parses as a JSON object is taken
// to be an earlier serialization of a map and is decoded, sanitized and
// serialized again, so running a value through the pipeline twice gives the
// same result as running it once.
//
// Inputs are never mutated; every call returns new slices and maps.
package sanitize
