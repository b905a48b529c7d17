// Package field defines the contracts consumed by the form engine: field
// descriptors, the typed value view handed to validators, and the Validator and
// AsyncValidator capabilities. Rule helpers in rules.go cover the common
// declarative checks (required, length bounds, patterns, numeric ranges) so
// field definitions can be expressed as data instead of ad-hoc closures.
package field
