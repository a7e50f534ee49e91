// Package storage provides the blob storage backends for uploaded files.
//
// File metadata (owner, group, content type) lives in PostgreSQL; the bytes
// themselves are keyed by the file's UUID and stored in one of two backends:
//
//   - filesystem: sharded directories under a configurable root
//   - s3: an S3-compatible object store (AWS S3, MinIO)
//
// Both backends implement the BlobStore interface. The backend is selected
// by Config.Type.
package storage
