// Package form implements the form-state engine: a store of values, touched
// flags, errors and loading flags keyed by field name, a validation
// orchestrator that runs synchronous then asynchronous checks on blur, derived
// validity, and a submission controller.
//
// Asynchronous results are guarded by a per-field generation counter. Every
// HandleChange, SetValue and HandleBlur bumps the counter; a validation result
// is committed only when the generation it captured is still current, so the
// latest validation started for a field always wins.
//
// A Form is safe for concurrent use. The store lock is never held while a
// validator or the submitter runs, so callers wanting fire-and-forget blur
// handling can invoke HandleBlur from a goroutine.
package form
