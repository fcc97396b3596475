// Package timeline reads and writes timeline documents and layout results.
//
// # Documents
//
// A [Document] bundles the layout configuration with the categories and
// events of one timeline. Documents are stored as YAML, TOML or JSON; the
// format follows the file extension:
//
//	title: Release plan
//	config:
//	  scale: month
//	  start: 2024-01-01
//	  end: 2024-06-30
//	  policy: splitrow
//	categories:
//	  - id: dev
//	    label: Development
//	events:
//	  - id: design
//	    category: dev
//	    start: 2024-01-08
//	    end: 2024-02-09
//
// Event start and end values are raw: strings in any form the calendar
// parser accepts, epoch milliseconds, or native date values of the format.
// They are parsed in the document's timezone by [Document.Inputs].
//
// Events without an id get a random UUID when the document is loaded, so a
// loaded document always lays out the same way.
//
// # Results
//
// [MarshalResult], [WriteResult] and [WriteResultFile] export a
// [layout.Result] as indented JSON. [ReadResult] reads it back; the decoded
// result still answers hit-testing queries.
package timeline
