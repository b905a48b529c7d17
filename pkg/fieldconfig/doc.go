// Package fieldconfig declares forms as data. A document lists fields with
// their kind, labels and rules and is turned into field descriptors that
// form.New accepts.
//
// Documents are JSON or YAML (see Parse, Load and LoadFS) or are derived
// from the JSON request body schema of an OpenAPI operation (FromOpenAPI).
// Remote checks are declared by path and bound to an async validator by the
// caller through BuildOptions.Remote, so this package never performs I/O
// on its own.
package fieldconfig
