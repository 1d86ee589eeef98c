// Package notes turns free-form study notes into vocabulary candidates.
//
// A Parser extracts term/definition/category triples with a language model.
// A Syncer fetches a published document (plain text, a Google Doc export or
// an HTML page), parses it and drops every term already in the library.
package notes
