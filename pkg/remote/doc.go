// Package remote talks to the HTTP backend behind a form: it resolves
// asynchronous field lookups and submits collected values.
//
// Lookup implements field.AsyncValidator and Submitter implements
// form.Submitter, so both plug straight into form.New.
package remote
