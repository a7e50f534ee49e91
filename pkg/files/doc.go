// Package files manages uploaded file metadata. The bytes live in a
// storage.BlobStore keyed by the file's UUID; this package owns the
// filestore table rows that carry uploader, filename, optional memo group
// attachment and upload time.
package files
