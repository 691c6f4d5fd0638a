package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nstehr/abilityc/model"
)

func TestDecodeInput(t *testing.T) {
	jsonIn := `{"game":"gs","name":"Tester","tables":{"e":["Skill DMG"]}}`
	in, err := decodeInput("tester.json", []byte(jsonIn))
	if err != nil {
		t.Fatal(err)
	}
	if in.Game != model.GameGS || in.Tables[model.TalentE][0] != "Skill DMG" {
		t.Errorf("json input = %+v", in)
	}

	yamlIn := "game: sr\nname: Tester\ntables:\n  q: [Ultimate DMG]\n"
	in, err = decodeInput("tester.yml", []byte(yamlIn))
	if err != nil {
		t.Fatal(err)
	}
	if in.Game != model.GameSR || in.Tables[model.TalentQ][0] != "Ultimate DMG" {
		t.Errorf("yaml input = %+v", in)
	}

	if _, err := decodeInput("bad.json", []byte("{")); err == nil {
		t.Error("expected a decode error")
	}
}

func TestInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.yaml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "scripts.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	files, err := inputFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.yaml" || filepath.Base(files[1]) != "b.json" {
		t.Errorf("files = %v", files)
	}
}

func TestBatchSummaryCounts(t *testing.T) {
	s := batchSummary{Results: map[string]string{
		"a": "model",
		"b": "heuristic",
		"c": "heuristic: all model attempts exhausted, heuristic fallback used, last failure = x",
		"d": "error: decode d.json: unexpected EOF",
	}}
	c := s.counts()
	if c["model"] != 1 || c["heuristic"] != 2 || c["error"] != 1 {
		t.Errorf("counts = %v", c)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(good, []byte("created_by: heuristic\nmain_attr: atk\ndefault_dmg_idx: 0\ndefault_dmg_key: e\n"+
		"details:\n  - title: E\n    kind: dmg\n    expr: Dmg(T(\"e\", \"Skill DMG\"), \"e\", \"\")\nbuffs: []\n"), 0o644)
	os.WriteFile(bad, []byte("created_by: heuristic\ndetails:\n  - title: E\n    kind: dmg\n    expr: Exec(\"rm\")\n"), 0o644)

	var out bytes.Buffer
	checkCmd.SetOut(&out)
	err := checkCmd.RunE(checkCmd, []string{good, bad})
	if err == nil {
		t.Fatal("expected failure for bad script")
	}
	if !strings.Contains(out.String(), "ok   "+good) || !strings.Contains(out.String(), "FAIL "+bad) {
		t.Errorf("output:\n%s", out.String())
	}
}
