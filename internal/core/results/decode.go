package results

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/textclean"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
)

// wire shapes of the list documents; absent and null arrays both decode to nil

type keyPhrasesDoc struct {
	KeyPhrases []Phrase `json:"KeyPhrases"`
}

type entitiesDoc struct {
	Entities []Entity `json:"Entities"`
}

// Decode parses the first JSON value of r as a document of d's kind
// key is the notification object key, the JobID source for KeyPhrases and Entities
// Anything after the first value is ignored
func Decode(r io.Reader, d Descriptor, key string) (Record, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, perr.Malformedf("results: %s document is empty", d.Kind)
		}
		return Record{}, perr.Wrapf(err, perr.ErrorCodeMalformedDocument, "results: %s document is not valid JSON", d.Kind)
	}
	if err := validate(d.Kind, raw); err != nil {
		return Record{}, err
	}

	rec := Record{Kind: d.Kind}
	if d.JobID == JobIDFromKey {
		id, err := keyJobID(key)
		if err != nil {
			return Record{}, err
		}
		rec.JobID = id
	}

	switch d.Kind {
	case KindKeyPhrases:
		var doc keyPhrasesDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Record{}, perr.Wrap(err, perr.ErrorCodeMalformedDocument, "results: KeyPhrases document")
		}
		rec.Phrases = make([]Phrase, 0, len(doc.KeyPhrases))
		for _, p := range doc.KeyPhrases {
			rec.Phrases = append(rec.Phrases, Phrase{Text: textclean.Clean(p.Text), Score: p.Score})
		}

	case KindEntities:
		var doc entitiesDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Record{}, perr.Wrap(err, perr.ErrorCodeMalformedDocument, "results: Entities document")
		}
		rec.Entities = make([]Entity, 0, len(doc.Entities))
		for _, e := range doc.Entities {
			rec.Entities = append(rec.Entities, Entity{
				Text:  textclean.Clean(e.Text),
				Type:  textclean.Clean(e.Type),
				Score: e.Score,
			})
		}

	case KindSentiment:
		var s Sentiment
		if err := json.Unmarshal(raw, &s); err != nil {
			return Record{}, perr.Wrap(err, perr.ErrorCodeMalformedDocument, "results: Sentiment document")
		}
		id, err := fileJobID(s.File)
		if err != nil {
			return Record{}, err
		}
		rec.JobID = id
		rec.Sentiment = &s

	default:
		return Record{}, perr.InvalidArgf("results: unknown kind %q", d.Kind)
	}
	return rec, nil
}
