// Package file provides the TOML configuration store.
//
// Values are addressed by dotted keys such as "embedding.model". On disk each
// key prefix becomes a table, so the file stays readable and hand-editable:
//
//	[embedding]
//	model = "qwen/qwen3-embedding-8b"
package file
