// Package results decodes text analysis output documents into typed records
// and renders them as CSV artifacts and status table attributes
//
// One descriptor per kind drives every step: key prefix, JSON schema,
// CSV header, JobID source and status table attribute
package results

import (
	"strings"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
)

// Kind is the category of an analysis result
type Kind string

// Known kinds
const (
	KindKeyPhrases Kind = "KeyPhrases"
	KindSentiment  Kind = "Sentiment"
	KindEntities   Kind = "Entities"
)

// JobIDSource says where a kind keeps its job identifier
type JobIDSource uint8

const (
	// JobIDFromKey takes the second segment of the object key
	JobIDFromKey JobIDSource = iota
	// JobIDFromFile takes the leading UUID of the document's File field
	JobIDFromFile
)

// jobIDLen is the length of the UUID that prefixes a Sentiment File value
const jobIDLen = 36

// Descriptor parameterizes the pipeline for one kind
type Descriptor struct {
	Kind Kind

	// Prefix is the first object key segment, matched case sensitively
	Prefix string

	// Header is the CSV header row
	Header []string

	// Attribute is the status table attribute replaced by this kind, empty for none
	Attribute string

	JobID JobIDSource

	schema string
}

var descriptors = []Descriptor{
	{
		Kind:      KindKeyPhrases,
		Prefix:    "keyPhrases",
		Header:    []string{"JobId", "Phrase", "Score"},
		Attribute: "KeyPhrases",
		JobID:     JobIDFromKey,
		schema:    keyPhrasesSchema,
	},
	{
		Kind:   KindSentiment,
		Prefix: "sentiment",
		Header: []string{"jobId", "Sentiment", "Mixed", "Negative", "Neutral", "Positive"},
		JobID:  JobIDFromFile,
		schema: sentimentSchema,
	},
	{
		Kind:      KindEntities,
		Prefix:    "entities",
		Header:    []string{"jobId", "type", "text", "score"},
		Attribute: "entities",
		JobID:     JobIDFromKey,
		schema:    entitiesSchema,
	},
}

// Descriptors returns a copy of the descriptor table
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Classify maps an object key to its descriptor using the text before the first slash
// ok is false for unknown prefixes and keys without a slash
func Classify(key string) (d Descriptor, ok bool) {
	i := strings.IndexByte(key, '/')
	if i < 0 {
		return Descriptor{}, false
	}
	prefix := key[:i]
	for _, d := range descriptors {
		if d.Prefix == prefix {
			return d, true
		}
	}
	return Descriptor{}, false
}

// For returns the descriptor of kind
func For(kind Kind) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Kind == kind {
			return d, true
		}
	}
	return Descriptor{}, false
}

// UpdatesTable reports whether the kind replaces a status table attribute
func (d Descriptor) UpdatesTable() bool { return d.Attribute != "" }

// keyJobID returns the second segment of key
func keyJobID(key string) (string, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 2 || parts[1] == "" {
		return "", perr.Malformedf("results: object key %q has no job segment", key)
	}
	return checkJobID(parts[1])
}

// fileJobID returns the first 36 characters of file
func fileJobID(file string) (string, error) {
	r := []rune(file)
	if len(r) < jobIDLen {
		return "", perr.Malformedf("results: File %q is shorter than %d characters", file, jobIDLen)
	}
	return checkJobID(string(r[:jobIDLen]))
}

// checkJobID rejects ids that cannot stand as a single object key segment
func checkJobID(id string) (string, error) {
	if id == "." || id == ".." {
		return "", perr.Malformedf("results: job id %q is a dot segment", id)
	}
	for _, c := range id {
		if c == '/' || c == '\\' || c < 0x20 || c == 0x7f {
			return "", perr.Malformedf("results: job id %q is not a single key segment", id)
		}
	}
	return id, nil
}
