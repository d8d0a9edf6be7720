// Package archive fetches analysis output archives from object storage and opens the document inside
//
// Layout handled:
// - exactly one compression layer sniffed by magic bytes: gzip, zstd or an lz4 frame
// - exactly one container layer: tar (ustar magic) or zip (local file header)
// - the first regular file entry is the document; directories and later entries are ignored
//
// The object is spooled to a temp file before decoding
// Document.Close releases the temp file and every decoder
package archive
