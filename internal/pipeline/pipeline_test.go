package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/mapping"
)

func fixtureStore() *mapping.Store {
	return &mapping.Store{
		Degree: map[string]int{"B.TECH": 1, "MBA": 2},
		Spec:   map[string]int{"B.TECH": 3},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func academicDataset(t *testing.T, dir string) DatasetConfig {
	t.Helper()

	path := filepath.Join(dir, "dataset_input_v2.csv")
	writeFile(t, path, "Prog Code,CGPA,YoG,Certifications\n"+
		"B.Tech,4.5,2023,\"AWS, Azure\"\n"+
		"MBA,3.0,2022,\n")

	return DatasetConfig{
		Name:      "Academic Performance (V2)",
		File:      path,
		CGPAScale: "5",
		Columns: ColumnMapping{
			Degree:         "Prog Code",
			Specialization: "Prog Code",
			CGPA:           "CGPA",
			Year:           "YoG",
			Certifications: "Certifications",
		},
	}
}

func placementDataset(t *testing.T, dir string) DatasetConfig {
	t.Helper()

	path := filepath.Join(dir, "dataset_input_placement.csv")
	writeFile(t, path, "Department,CGPA,GraduationYear,Certifications\n"+
		"B.Tech,8.5,2024,CCNA\n")

	return DatasetConfig{
		Name:       "Student Placement Data",
		File:       path,
		CGPAScale:  "10",
		SourceFlag: 1,
		Columns: ColumnMapping{
			Degree:         "Department",
			Specialization: "Department",
			CGPA:           "CGPA",
			Year:           "GraduationYear",
			Certifications: "Certifications",
		},
	}
}

func readCorpus(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	return rows
}

func TestRunEncodesConfiguredDatasets(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "corpus.csv")

	datasets := []DatasetConfig{academicDataset(t, dir), placementDataset(t, dir)}

	report, err := New(fixtureStore(), zap.NewNop()).Run(datasets, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Records != 3 {
		t.Fatalf("expected 3 records, got %d", report.Records)
	}

	rows := readCorpus(t, out)
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}

	for i, want := range Header {
		if rows[0][i] != want {
			t.Fatalf("unexpected header column %d: got %q, want %q", i, rows[0][i], want)
		}
	}

	first := rows[1]
	if first[0] != "Academic Performance (V2)" || first[1] != "B.Tech" || first[2] != "4.5" {
		t.Fatalf("unexpected original fields: %v", first)
	}
	if first[3] != "1" || first[4] != "3" {
		t.Fatalf("unexpected category codes: %v", first)
	}
	if first[5] != "0.9" {
		t.Fatalf("unexpected normalized cgpa: %v", first)
	}
	if first[6] != "2023" || first[7] != "2" {
		t.Fatalf("unexpected year/cert columns: %v", first)
	}

	placement := rows[3]
	if placement[0] != "Student Placement Data" || placement[5] != "0.85" {
		t.Fatalf("unexpected placement row: %v", placement)
	}
}

func TestRunSkipsMissingDataset(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "corpus.csv")

	missing := DatasetConfig{
		Name: "Student Placement Data",
		File: filepath.Join(dir, "does-not-exist.csv"),
	}
	datasets := []DatasetConfig{missing, academicDataset(t, dir)}

	report, err := New(fixtureStore(), zap.NewNop()).Run(datasets, out)
	if err != nil {
		t.Fatalf("expected the run to continue, got: %v", err)
	}

	if len(report.Datasets) != 2 {
		t.Fatalf("expected 2 dataset reports, got %d", len(report.Datasets))
	}
	if !report.Datasets[0].Skipped {
		t.Fatal("expected the missing dataset to be marked skipped")
	}
	if report.Datasets[1].Records != 2 {
		t.Fatalf("expected the remaining dataset to be processed, got %d records", report.Datasets[1].Records)
	}
}

func TestRunCollectsDiagnosticSample(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "corpus.csv")

	report, err := New(fixtureStore(), zap.NewNop()).Run([]DatasetConfig{academicDataset(t, dir)}, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Sample) != 2 {
		t.Fatalf("expected 2 sampled vectors, got %d", len(report.Sample))
	}
	if report.Sample[0].DegreeCode != 1 {
		t.Fatalf("unexpected first sample: %+v", report.Sample[0])
	}
}
