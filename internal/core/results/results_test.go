package results

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"testing"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	kit "github.com/ferroh-aws/transcribe-comprehend/internal/platform/testkit"
)

const jobUUID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func mustDescriptor(t *testing.T, k Kind) Descriptor {
	t.Helper()
	d, ok := For(k)
	if !ok {
		t.Fatalf("no descriptor for %s", k)
	}
	return d
}

func decode(t *testing.T, k Kind, key, doc string) (Record, error) {
	t.Helper()
	return Decode(strings.NewReader(doc), mustDescriptor(t, k), key)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		key  string
		kind Kind
		ok   bool
	}{
		{"keyPhrases/job-1/output.tar.gz", KindKeyPhrases, true},
		{"sentiment/x/output.tar.gz", KindSentiment, true},
		{"entities/job-2/a/b/c", KindEntities, true},
		{"entities/", KindEntities, true},
		{"KeyPhrases/job-1/out", "", false},
		{"Sentiment/job-1/out", "", false},
		{"unknown/job-1/out", "", false},
		{"keyPhrases", "", false},
		{"", "", false},
		{"/keyPhrases/job", "", false},
	}
	for _, c := range cases {
		d, ok := Classify(c.key)
		if ok != c.ok || d.Kind != c.kind {
			t.Fatalf("Classify(%q) = %q,%v want %q,%v", c.key, d.Kind, ok, c.kind, c.ok)
		}
	}
}

func TestDescriptors_Table(t *testing.T) {
	ds := Descriptors()
	if len(ds) != 3 {
		t.Fatalf("want 3 descriptors, got %d", len(ds))
	}
	ds[0].Prefix = "mutated"
	if d, _ := For(KindKeyPhrases); d.Prefix != "keyPhrases" {
		t.Fatalf("Descriptors must return a copy")
	}

	want := map[Kind]string{KindKeyPhrases: "KeyPhrases", KindEntities: "entities", KindSentiment: ""}
	for k, attr := range want {
		d := mustDescriptor(t, k)
		if d.Attribute != attr || d.UpdatesTable() != (attr != "") {
			t.Fatalf("%s attribute = %q", k, d.Attribute)
		}
		if schemaFor(k) == nil {
			t.Fatalf("%s schema did not compile", k)
		}
	}
	if _, ok := For("Syntax"); ok {
		t.Fatalf("unexpected descriptor")
	}
}

func TestDecode_KeyPhrasesScenario(t *testing.T) {
	rec, err := decode(t, KindKeyPhrases, "keyPhrases/job-123/out.json",
		`{"KeyPhrases":[{"Text":"hello","Score":0.9}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.JobID != "job-123" || rec.Rows() != 1 {
		t.Fatalf("record = %+v", rec)
	}

	body, err := rec.CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if got, want := string(body), "JobId,Phrase,Score\njob-123,hello,0.9\n"; got != want {
		t.Fatalf("csv = %q, want %q", got, want)
	}
	if got := rec.ObjectKey("analytics"); got != "analytics/keyPhrases/job-123.csv" {
		t.Fatalf("object key = %q", got)
	}

	name, value, ok := rec.Attribute()
	if !ok || name != "KeyPhrases" {
		t.Fatalf("attribute = %q %v", name, ok)
	}
	js, _ := json.Marshal(value)
	if string(js) != `[{"Text":"hello","Score":0.9}]` {
		t.Fatalf("attribute value = %s", js)
	}
}

func TestDecode_SentimentScenario(t *testing.T) {
	doc := `{"Sentiment":"POSITIVE","File":"` + jobUUID + `rest.txt",` +
		`"SentimentScore":{"Mixed":0.01,"Negative":0.02,"Neutral":0.07,"Positive":0.90}}`
	rec, err := decode(t, KindSentiment, "sentiment/ignored/output.tar.gz", doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.JobID != jobUUID {
		t.Fatalf("job id = %q", rec.JobID)
	}
	if _, _, ok := rec.Attribute(); ok {
		t.Fatalf("sentiment must not produce a table attribute")
	}
	body, err := rec.CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	want := "jobId,Sentiment,Mixed,Negative,Neutral,Positive\n" +
		jobUUID + ",POSITIVE,0.01,0.02,0.07,0.9\n"
	if string(body) != want {
		t.Fatalf("csv = %q, want %q", body, want)
	}
	if got := rec.ObjectKey("analytics"); got != "analytics/sentiment/"+jobUUID+".csv" {
		t.Fatalf("object key = %q", got)
	}
}

func TestDecode_SentimentJobIDIsFirst36Chars(t *testing.T) {
	for _, file := range []string{jobUUID, jobUUID + "-part-0001.txt", strings.Repeat("x", 36) + "\u00e9"} {
		doc := `{"Sentiment":"NEUTRAL","File":` + strconv.Quote(file) +
			`,"SentimentScore":{"Mixed":0,"Negative":0,"Neutral":1,"Positive":0}}`
		rec, err := decode(t, KindSentiment, "sentiment/k", doc)
		if err != nil {
			t.Fatalf("Decode(%q): %v", file, err)
		}
		if rec.JobID != string([]rune(file)[:36]) {
			t.Fatalf("job id = %q for %q", rec.JobID, file)
		}
	}
}

func TestDecode_NRowsInvariant(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		phrases := make([]Phrase, n)
		entities := make([]Entity, n)
		for i := range phrases {
			phrases[i] = Phrase{Text: "p" + strconv.Itoa(i), Score: float64(i) / 10}
			entities[i] = Entity{Text: "e" + strconv.Itoa(i), Type: "PERSON", Score: 0.5}
		}
		kp, _ := json.Marshal(map[string]any{"KeyPhrases": phrases})
		en, _ := json.Marshal(map[string]any{"Entities": entities})

		for _, tc := range []struct {
			kind Kind
			key  string
			doc  []byte
		}{
			{KindKeyPhrases, "keyPhrases/j/o", kp},
			{KindEntities, "entities/j/o", en},
		} {
			rec, err := decode(t, tc.kind, tc.key, string(tc.doc))
			if err != nil {
				t.Fatalf("%s n=%d: %v", tc.kind, n, err)
			}
			body, err := rec.CSV()
			if err != nil {
				t.Fatalf("CSV: %v", err)
			}
			lines, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
			if err != nil {
				t.Fatalf("csv parse: %v", err)
			}
			if len(lines) != n+1 {
				t.Fatalf("%s n=%d: %d csv lines", tc.kind, n, len(lines))
			}
			_, v, ok := rec.Attribute()
			if !ok || reflect.ValueOf(v).Len() != n {
				t.Fatalf("%s n=%d: attribute len mismatch", tc.kind, n)
			}
			js, _ := json.Marshal(v)
			if n == 0 && string(js) != "[]" {
				t.Fatalf("empty attribute must encode as [], got %s", js)
			}
		}
	}
}

func TestDecode_EmptyArraysAreValid(t *testing.T) {
	for _, doc := range []string{`{}`, `{"KeyPhrases":[]}`, `{"KeyPhrases":null}`, `{"File":"x"}`} {
		rec, err := decode(t, KindKeyPhrases, "keyPhrases/j/o", doc)
		if err != nil {
			t.Fatalf("Decode(%s): %v", doc, err)
		}
		if rec.Rows() != 0 || rec.Phrases == nil {
			t.Fatalf("Decode(%s) = %+v", doc, rec)
		}
		body, _ := rec.CSV()
		if string(body) != "JobId,Phrase,Score\n" {
			t.Fatalf("header only csv expected, got %q", body)
		}
	}
}

func TestDecode_EntitiesColumns(t *testing.T) {
	rec, err := decode(t, KindEntities, "entities/job-9/output",
		`{"Entities":[{"Text":"Seattle, WA","Type":"LOCATION","Score":0.998},{"Text":"say \"hi\"","Type":"OTHER","Score":1}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	body, _ := rec.CSV()
	want := "jobId,type,text,score\n" +
		"job-9,LOCATION,\"Seattle, WA\",0.998\n" +
		"job-9,OTHER,\"say \"\"hi\"\"\",1\n"
	if string(body) != want {
		t.Fatalf("csv = %q, want %q", body, want)
	}
	name, _, _ := rec.Attribute()
	if name != "entities" {
		t.Fatalf("attribute = %q", name)
	}
}

func TestDecode_CleansControlsOnly(t *testing.T) {
	rec, err := decode(t, KindEntities, "entities/j/o",
		`{"Entities":[{"Text":"cafe\u0301\u200b","Type":"ORG\u0000","Score":0.5}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if e := rec.Entities[0]; e.Text != "cafe\u0301\u200b" || e.Type != "ORG" {
		t.Fatalf("entity = %+v", e)
	}
}

func TestDecode_JoinersPassThrough(t *testing.T) {
	text := "\U0001F468\u200d\U0001F469\u200d\U0001F467 \u0645\u06cc\u200c\u062e\u0648\u0627\u0647\u0645"
	quoted, _ := json.Marshal(text)
	rec, err := decode(t, KindKeyPhrases, "keyPhrases/j/o",
		`{"KeyPhrases":[{"Text":`+string(quoted)+`,"Score":0.9}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Phrases[0].Text; got != text {
		t.Fatalf("text = %q, want %q", got, text)
	}

	body, err := rec.CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	kit.MustContain(t, string(body), text)
}

func TestDecode_JobIDMustBeOneKeySegment(t *testing.T) {
	score := `"SentimentScore":{"Mixed":0,"Negative":0,"Neutral":1,"Positive":0}`
	files := []string{
		"../../../../../evil/aaaaaaaaaaaaaaaaaaaaaaaaa",
		"../keyPhrases/" + jobUUID[:22],
		"0f8fad5b-d9cb-469f/a165-70867728950e",
		"0f8fad5b-d9cb-469f\\a165-70867728950e",
		"0f8fad5b-d9cb-469f\ta165-70867728950e",
	}
	for _, file := range files {
		_, err := decode(t, KindSentiment, "sentiment/k",
			`{"Sentiment":"NEUTRAL","File":`+strconv.Quote(file)+`,`+score+`}`)
		if !perr.IsCode(err, perr.ErrorCodeMalformedDocument) {
			t.Fatalf("File %q: code = %v (%v)", file, perr.CodeOf(err), err)
		}
	}

	for _, key := range []string{"keyPhrases/../o", "entities/./o", "keyPhrases/a\x01b/o"} {
		_, err := decode(t, KindKeyPhrases, key, `{"KeyPhrases":[]}`)
		if !perr.IsCode(err, perr.ErrorCodeMalformedDocument) {
			t.Fatalf("key %q: code = %v (%v)", key, perr.CodeOf(err), err)
		}
	}
}

func TestRecord_ObjectKeyIsNeverCleaned(t *testing.T) {
	cases := []struct {
		prefix string
		rec    Record
		want   string
	}{
		{"analytics", Record{Kind: KindSentiment, JobID: jobUUID}, "analytics/sentiment/" + jobUUID + ".csv"},
		{"analytics/", Record{Kind: KindEntities, JobID: "j"}, "analytics/entities/j.csv"},
		{"", Record{Kind: KindKeyPhrases, JobID: "j"}, "keyPhrases/j.csv"},
		{"a/b", Record{Kind: KindKeyPhrases, JobID: "..x"}, "a/b/keyPhrases/..x.csv"},
	}
	for _, c := range cases {
		if got := c.rec.ObjectKey(c.prefix); got != c.want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", c.prefix, got, c.want)
		}
	}
}

func TestDecode_OnlyFirstValue(t *testing.T) {
	rec, err := decode(t, KindKeyPhrases, "keyPhrases/j/o",
		`{"KeyPhrases":[{"Text":"a","Score":0.1}]}
{"KeyPhrases":[{"Text":"b","Score":0.2}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Rows() != 1 || rec.Phrases[0].Text != "a" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestDecode_Malformed(t *testing.T) {
	score := `"SentimentScore":{"Mixed":0,"Negative":0,"Neutral":1,"Positive":0}`
	cases := []struct {
		name string
		kind Kind
		key  string
		doc  string
	}{
		{"empty stream", KindKeyPhrases, "keyPhrases/j/o", ""},
		{"not json", KindKeyPhrases, "keyPhrases/j/o", "KeyPhrases: yes"},
		{"array root", KindEntities, "entities/j/o", `[]`},
		{"null root", KindEntities, "entities/j/o", `null`},
		{"phrases not array", KindKeyPhrases, "keyPhrases/j/o", `{"KeyPhrases":"hello"}`},
		{"score as string", KindKeyPhrases, "keyPhrases/j/o", `{"KeyPhrases":[{"Text":"a","Score":"0.9"}]}`},
		{"score out of range", KindKeyPhrases, "keyPhrases/j/o", `{"KeyPhrases":[{"Text":"a","Score":1.5}]}`},
		{"phrase without text", KindKeyPhrases, "keyPhrases/j/o", `{"KeyPhrases":[{"Score":0.5}]}`},
		{"entity without type", KindEntities, "entities/j/o", `{"Entities":[{"Text":"a","Score":0.5}]}`},
		{"missing job segment", KindKeyPhrases, "keyPhrases//o", `{"KeyPhrases":[]}`},
		{"no job segment", KindEntities, "entities/", `{"Entities":[]}`},
		{"missing sentiment", KindSentiment, "sentiment/j", `{"File":"` + jobUUID + `",` + score + `}`},
		{"missing file", KindSentiment, "sentiment/j", `{"Sentiment":"MIXED",` + score + `}`},
		{"short file", KindSentiment, "sentiment/j", `{"Sentiment":"MIXED","File":"abc",` + score + `}`},
		{"unknown label", KindSentiment, "sentiment/j", `{"Sentiment":"HAPPY","File":"` + jobUUID + `",` + score + `}`},
		{"missing scores", KindSentiment, "sentiment/j", `{"Sentiment":"MIXED","File":"` + jobUUID + `"}`},
		{"score not number", KindSentiment, "sentiment/j",
			`{"Sentiment":"MIXED","File":"` + jobUUID + `","SentimentScore":{"Mixed":"x","Negative":0,"Neutral":1,"Positive":0}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := decode(t, c.kind, c.key, c.doc)
			if !perr.IsCode(err, perr.ErrorCodeMalformedDocument) {
				t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
			}
		})
	}
}

func TestValidate_MessageNamesField(t *testing.T) {
	err := validate(KindKeyPhrases, []byte(`{"KeyPhrases":[{"Text":1,"Score":"x"},{"Text":2},{},{}]}`))
	if err == nil {
		t.Fatalf("expected error")
	}
	kit.MustContain(t, err.Error(), "KeyPhrases.0")
	kit.MustContain(t, err.Error(), "more")
	if e, ok := perr.As(err); !ok || e.Field() == "" {
		t.Fatalf("field not attached: %v", err)
	}
}

func TestScoreRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 0.9, 0.1 + 0.2, 0.999999999999, 1e-9, 0.123456789012345678} {
		rec := Record{Kind: KindKeyPhrases, JobID: "j", Phrases: []Phrase{{Text: "t", Score: v}}}
		body, err := rec.CSV()
		if err != nil {
			t.Fatalf("CSV: %v", err)
		}
		rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
		if err != nil {
			t.Fatalf("csv parse: %v", err)
		}
		got, err := strconv.ParseFloat(rows[1][2], 64)
		if err != nil {
			t.Fatalf("parse %q: %v", rows[1][2], err)
		}
		if math.Abs(got-v) > 1e-15 {
			t.Fatalf("round trip %v -> %q -> %v", v, rows[1][2], got)
		}
		if strings.ContainsAny(rows[1][2], "eE") {
			t.Fatalf("score rendered in exponent form: %q", rows[1][2])
		}
	}
}

func TestRecord_CSVErrors(t *testing.T) {
	if _, err := (Record{Kind: "Syntax"}).CSV(); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown kind err = %v", err)
	}
	if _, err := (Record{Kind: KindSentiment, JobID: "j"}).CSV(); !perr.IsCode(err, perr.ErrorCodeMalformedDocument) {
		t.Fatalf("nil sentiment err = %v", err)
	}
	if (Record{Kind: KindSentiment}).Rows() != 0 {
		t.Fatalf("nil sentiment has no rows")
	}
}
