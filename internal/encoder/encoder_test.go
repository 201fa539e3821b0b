package encoder

import (
	"math"
	"testing"

	"github.com/avinashm/careerpath/internal/mapping"
)

func fixtureStore() *mapping.Store {
	return &mapping.Store{
		Degree: map[string]int{"B.TECH": 1, "B.SC": 2},
		Spec:   map[string]int{"CSE": 4, "ECE": 5},
	}
}

func vectorsEqual(a, b [8]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestEncodeFullProfile(t *testing.T) {
	rec := RawEducationRecord{
		Degree:           "B.Tech",
		Specialization:   "Mechanical",
		CGPA:             "8.5",
		CGPAOutOf:        "10",
		YearOfGraduation: "2024",
		Certifications:   "AWS,Azure",
		Internship:       "Yes",
		Projects:         "3",
	}

	vec := Encode(rec, fixtureStore(), LiveSourceFlag)

	want := [8]float64{0, 1, 0, 0.85, 2024, 2, 1, 3}
	if got := vec.Values(); !vectorsEqual(got, want) {
		t.Fatalf("unexpected vector: got %v, want %v", got, want)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	rec := RawEducationRecord{
		Degree:         "b.sc",
		Specialization: " cse ",
		CGPA:           "3.2",
		CGPAOutOf:      "4",
		Certifications: "CCNA",
		Internship:     "No",
		Projects:       "1",
	}
	store := fixtureStore()

	first := Encode(rec, store, 1)
	second := Encode(rec, store, 1)

	if first != second {
		t.Fatalf("encoding is not deterministic: %v vs %v", first, second)
	}
}

func TestEncodeNormalizesCGPAPerScale(t *testing.T) {
	cases := []struct {
		cgpa  string
		scale string
		want  float64
	}{
		{"3.2", "4", 0.8},
		{"4.5", "5", 0.9},
		{"8.5", "10", 0.85},
	}

	for _, tc := range cases {
		rec := RawEducationRecord{Degree: "B.Tech", CGPA: tc.cgpa, CGPAOutOf: tc.scale}
		vec := Encode(rec, fixtureStore(), LiveSourceFlag)

		if math.Abs(vec.CGPANorm-tc.want) > 1e-9 {
			t.Errorf("cgpa %s/%s: got %v, want %v", tc.cgpa, tc.scale, vec.CGPANorm, tc.want)
		}
		if vec.CGPANorm < 0 || vec.CGPANorm > 1 {
			t.Errorf("cgpa %s/%s: normalized value %v outside [0,1]", tc.cgpa, tc.scale, vec.CGPANorm)
		}
	}
}

func TestEncodeDefaults(t *testing.T) {
	vec := Encode(RawEducationRecord{}, fixtureStore(), LiveSourceFlag)

	if vec.CGPANorm != 0 {
		t.Errorf("expected zero normalized cgpa, got %v", vec.CGPANorm)
	}
	if vec.GraduationYear != DefaultGraduationYear {
		t.Errorf("expected year sentinel %d, got %d", DefaultGraduationYear, vec.GraduationYear)
	}
	if vec.DegreeCode != 0 || vec.SpecCode != 0 {
		t.Errorf("expected unknown codes, got %d/%d", vec.DegreeCode, vec.SpecCode)
	}
	if vec.CertCount != 0 || vec.InternBinary != 0 || vec.ProjectCount != 0 {
		t.Errorf("expected zero counts, got %+v", vec)
	}
}

func TestEncodeScaleFallsBackToTen(t *testing.T) {
	rec := RawEducationRecord{CGPA: "8", CGPAOutOf: "not-a-number"}
	vec := Encode(rec, fixtureStore(), LiveSourceFlag)

	if math.Abs(vec.CGPANorm-0.8) > 1e-9 {
		t.Fatalf("expected fallback scale of %d, got norm %v", DefaultCGPAScale, vec.CGPANorm)
	}
}

func TestEncodeInternshipFromEmploymentType(t *testing.T) {
	rec := RawEducationRecord{Internship: "No", EmploymentType: "internship"}
	if vec := Encode(rec, fixtureStore(), LiveSourceFlag); vec.InternBinary != 1 {
		t.Fatalf("expected internship binary 1, got %d", vec.InternBinary)
	}

	rec = RawEducationRecord{Internship: "No", EmploymentType: "full-time"}
	if vec := Encode(rec, fixtureStore(), LiveSourceFlag); vec.InternBinary != 0 {
		t.Fatalf("expected internship binary 0, got %d", vec.InternBinary)
	}
}

func TestEncodeProjectCountFallsBackToStProjCount(t *testing.T) {
	rec := RawEducationRecord{StProjCount: "4"}
	if vec := Encode(rec, fixtureStore(), LiveSourceFlag); vec.ProjectCount != 4 {
		t.Fatalf("expected project count 4, got %d", vec.ProjectCount)
	}
}

func TestUnknownCategoriesEncodeToZeroOnEveryPath(t *testing.T) {
	// The same raw string must produce the same vector whether it arrives via
	// a decoded field map (batch path) or a directly built record (live path).
	store := fixtureStore()

	direct := RawEducationRecord{Degree: "Unknown Degree", Specialization: "Unknown Spec", CGPA: "7"}
	decoded, err := DecodeRecord(map[string]any{
		"degree":         "Unknown Degree",
		"specialization": "Unknown Spec",
		"cgpa":           "7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fromDirect := Encode(direct, store, LiveSourceFlag)
	fromDecoded := Encode(decoded, store, LiveSourceFlag)

	if fromDirect != fromDecoded {
		t.Fatalf("paths diverged: %v vs %v", fromDirect, fromDecoded)
	}
	if fromDirect.DegreeCode != mapping.UnknownCode || fromDirect.SpecCode != mapping.UnknownCode {
		t.Fatalf("expected unknown codes, got %d/%d", fromDirect.DegreeCode, fromDirect.SpecCode)
	}
}

func TestCountCertifications(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"A, B,,  ", 2},
		{"", 0},
		{"   ", 0},
		{"AWS", 1},
		{"AWS,Azure,GCP", 3},
		{",,,", 0},
	}

	for _, tc := range cases {
		if got := CountCertifications(tc.raw); got != tc.want {
			t.Errorf("CountCertifications(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeRecordAcceptsLooseTypes(t *testing.T) {
	rec, err := DecodeRecord(map[string]any{
		"degree":           "B.Tech",
		"cgpa":             8.5,
		"cgpaOutOf":        "10",
		"yearOfGraduation": 2024,
		"projects":         3,
		"skills":           []string{"Go", "SQL"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.CGPA != "8.5" {
		t.Errorf("unexpected cgpa: %q", rec.CGPA)
	}
	if rec.YearOfGraduation != "2024" {
		t.Errorf("unexpected year: %q", rec.YearOfGraduation)
	}
	if rec.Projects != "3" {
		t.Errorf("unexpected projects: %q", rec.Projects)
	}
	if len(rec.Skills) != 2 {
		t.Errorf("unexpected skills: %v", rec.Skills)
	}
}

func TestParseIntTruncatesFloats(t *testing.T) {
	if got := ParseInt("3.7", 0); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := ParseInt("junk", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}
