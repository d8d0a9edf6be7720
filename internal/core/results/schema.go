package results

import (
	"fmt"
	"strings"
	"sync"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"

	"github.com/xeipuuv/gojsonschema"
)

const keyPhrasesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "KeyPhrases": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["Text", "Score"],
        "properties": {
          "Text": {"type": "string"},
          "Score": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

const sentimentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Sentiment", "File", "SentimentScore"],
  "properties": {
    "Sentiment": {"enum": ["POSITIVE", "NEGATIVE", "NEUTRAL", "MIXED"]},
    "File": {"type": "string", "minLength": 36},
    "SentimentScore": {
      "type": "object",
      "required": ["Mixed", "Negative", "Neutral", "Positive"],
      "properties": {
        "Mixed": {"type": "number"},
        "Negative": {"type": "number"},
        "Neutral": {"type": "number"},
        "Positive": {"type": "number"}
      }
    }
  }
}`

const entitiesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "Entities": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["Text", "Type", "Score"],
        "properties": {
          "Text": {"type": "string"},
          "Type": {"type": "string"},
          "Score": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

// maxSchemaErrors bounds how many violations end up in one error message
const maxSchemaErrors = 3

var (
	schemaOnce sync.Once
	compiled   map[Kind]*gojsonschema.Schema
)

// schemaFor returns the compiled schema of kind; the sources are constants so a compile error panics
func schemaFor(kind Kind) *gojsonschema.Schema {
	schemaOnce.Do(func() {
		compiled = make(map[Kind]*gojsonschema.Schema, len(descriptors))
		for _, d := range descriptors {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(d.schema))
			if err != nil {
				panic(fmt.Sprintf("results: compile %s schema: %v", d.Kind, err))
			}
			compiled[d.Kind] = s
		}
	})
	return compiled[kind]
}

// validate checks raw against the kind schema and reports violations as MalformedDocument
func validate(kind Kind, raw []byte) error {
	s := schemaFor(kind)
	if s == nil {
		return perr.InvalidArgf("results: no schema for kind %q", kind)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeMalformedDocument, "results: %s document is not JSON", kind)
	}
	if res.Valid() {
		return nil
	}

	errs := res.Errors()
	msgs := make([]string, 0, maxSchemaErrors)
	for i, e := range errs {
		if i == maxSchemaErrors {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		msgs = append(msgs, e.Field()+": "+e.Description())
	}
	return perr.WithField(
		perr.Malformedf("results: %s document: %s", kind, strings.Join(msgs, "; ")),
		errs[0].Field(),
	)
}
