package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
)

func TestParseArgs(t *testing.T) {
	batch, err := parseArgs([]string{
		"-bucket", "comprehend-output",
		"-key", "keyPhrases/a/output/output.tar.gz",
		"-key", " ",
		"sentiment/b/output/output.tar.gz",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch = %+v", batch)
	}
	if batch[1].Bucket != "comprehend-output" || batch[1].Key != "sentiment/b/output/output.tar.gz" {
		t.Fatalf("batch[1] = %+v", batch[1])
	}
}

func TestParseArgs_Errors(t *testing.T) {
	many := make([]string, 0, domain.MaxBatch+2)
	many = append(many, "-bucket", "b-1")
	for i := 0; i <= domain.MaxBatch; i++ {
		many = append(many, "k/x")
	}

	cases := map[string]struct {
		args []string
		want string
	}{
		"no bucket":    {[]string{"-key", "k/x"}, "-bucket"},
		"no keys":      {[]string{"-bucket", "b-1"}, "-key"},
		"too many":     {many, "at most"},
		"unknown flag": {[]string{"-nope"}, "not defined"},
		"bad bucket":   {[]string{"-bucket", "B_1", "k/x"}, "valid bucket name"},
		"long key":     {[]string{"-bucket", "b-1", strings.Repeat("k", 1025)}, "at most 1024 bytes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseArgs(tc.args, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v want %q", err, tc.want)
			}
		})
	}
}

func TestWriteReport_ExitCode(t *testing.T) {
	var ok domain.Report
	ok.Add(domain.Outcome{Status: domain.StatusOK})
	ok.Add(domain.Outcome{Status: domain.StatusSkipped})

	var buf bytes.Buffer
	if code := writeReport(&buf, ok); code != 0 {
		t.Fatalf("code = %d", code)
	}
	var back domain.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil || back.Succeeded != 1 || back.Skipped != 1 {
		t.Fatalf("report = %+v err %v", back, err)
	}

	var bad domain.Report
	bad.Add(domain.Outcome{Status: domain.StatusFailed})
	if code := writeReport(io.Discard, bad); code != 1 {
		t.Fatalf("code = %d", code)
	}
}
