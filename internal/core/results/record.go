package results

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
)

// ContentType of rendered artifacts
const ContentType = "text/csv"

// Phrase is one key phrase, also the element shape of the KeyPhrases attribute
type Phrase struct {
	Text  string  `json:"Text"`
	Score float64 `json:"Score"`
}

// Entity is one named entity, also the element shape of the entities attribute
type Entity struct {
	Text  string  `json:"Text"`
	Type  string  `json:"Type"`
	Score float64 `json:"Score"`
}

// SentimentScore holds the four class confidences, passed through unchecked
type SentimentScore struct {
	Mixed    float64 `json:"Mixed"`
	Negative float64 `json:"Negative"`
	Neutral  float64 `json:"Neutral"`
	Positive float64 `json:"Positive"`
}

// Sentiment is the single result of a sentiment document
type Sentiment struct {
	Sentiment string         `json:"Sentiment"`
	File      string         `json:"File"`
	Score     SentimentScore `json:"SentimentScore"`
}

// Record is a decoded analysis document
type Record struct {
	Kind  Kind
	JobID string

	Phrases   []Phrase
	Entities  []Entity
	Sentiment *Sentiment
}

// Rows is the number of data rows the CSV artifact carries
func (r Record) Rows() int {
	switch r.Kind {
	case KindKeyPhrases:
		return len(r.Phrases)
	case KindEntities:
		return len(r.Entities)
	case KindSentiment:
		if r.Sentiment != nil {
			return 1
		}
	}
	return 0
}

// Attribute returns the status table attribute name and its replacement value
// ok is false for kinds that do not touch the table
func (r Record) Attribute() (name string, value any, ok bool) {
	d, found := For(r.Kind)
	if !found || !d.UpdatesTable() {
		return "", nil, false
	}
	switch r.Kind {
	case KindKeyPhrases:
		v := make([]Phrase, len(r.Phrases))
		copy(v, r.Phrases)
		return d.Attribute, v, true
	case KindEntities:
		v := make([]Entity, len(r.Entities))
		copy(v, r.Entities)
		return d.Attribute, v, true
	}
	return "", nil, false
}

// ObjectKey is where the CSV artifact lands: <prefix>/<kind prefix>/<jobId>.csv
// The key is concatenated, never cleaned, so the job id stays one segment under the kind prefix
func (r Record) ObjectKey(prefix string) string {
	d, _ := For(r.Kind)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return d.Prefix + "/" + r.JobID + ".csv"
	}
	return prefix + "/" + d.Prefix + "/" + r.JobID + ".csv"
}

// CSV renders the fixed header followed by one row per result
func (r Record) CSV() ([]byte, error) {
	d, ok := For(r.Kind)
	if !ok {
		return nil, perr.InvalidArgf("results: unknown kind %q", r.Kind)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(d.Header); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "results: write csv header")
	}

	switch r.Kind {
	case KindKeyPhrases:
		for _, p := range r.Phrases {
			if err := w.Write([]string{r.JobID, p.Text, formatScore(p.Score)}); err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "results: write csv row")
			}
		}
	case KindEntities:
		for _, e := range r.Entities {
			if err := w.Write([]string{r.JobID, e.Type, e.Text, formatScore(e.Score)}); err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "results: write csv row")
			}
		}
	case KindSentiment:
		if r.Sentiment == nil {
			return nil, perr.Malformedf("results: sentiment record for %s has no result", r.JobID)
		}
		s := r.Sentiment
		row := []string{
			r.JobID,
			s.Sentiment,
			formatScore(s.Score.Mixed),
			formatScore(s.Score.Negative),
			formatScore(s.Score.Neutral),
			formatScore(s.Score.Positive),
		}
		if err := w.Write(row); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "results: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "results: flush csv")
	}
	return buf.Bytes(), nil
}

// formatScore renders the shortest decimal that parses back to v
func formatScore(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
