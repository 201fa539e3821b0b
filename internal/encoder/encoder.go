package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/avinashm/careerpath/internal/mapping"
)

// Defaults applied to absent or unparsable fields. Malformed historical data
// must still produce a vector, so these are documented sentinels rather than
// errors.
const (
	DefaultCGPAScale      = 10
	DefaultGraduationYear = 2025
)

// LiveSourceFlag tags records coming from a live user submission rather than
// one of the historical datasets. The coding is frozen once a model has been
// trained on it.
const LiveSourceFlag = 0

// RawEducationRecord is the source-dependent bag of fields an encoder accepts.
// Every numeric field is carried as its raw string so that the same lenient
// parsing applies regardless of whether the record came from a CSV row or a
// live submission.
type RawEducationRecord struct {
	Degree           string   `mapstructure:"degree" json:"degree"`
	Specialization   string   `mapstructure:"specialization" json:"specialization"`
	CGPA             string   `mapstructure:"cgpa" json:"cgpa"`
	CGPAOutOf        string   `mapstructure:"cgpaOutOf" json:"cgpaOutOf"`
	YearOfGraduation string   `mapstructure:"yearOfGraduation" json:"yearOfGraduation"`
	Certifications   string   `mapstructure:"certifications" json:"certifications"`
	Internship       string   `mapstructure:"internship" json:"internship"`
	EmploymentType   string   `mapstructure:"employmentType" json:"employmentType"`
	Projects         string   `mapstructure:"projects" json:"projects"`
	StProjCount      string   `mapstructure:"stProjCount" json:"stProjCount"`
	Skills           []string `mapstructure:"skills" json:"skills"`
}

// DecodeRecord builds a RawEducationRecord from a loosely typed field map.
// Numbers, booleans and strings are all accepted for the raw fields; this is
// the single entry point for both CSV rows and parsed JSON profiles.
func DecodeRecord(input map[string]any) (RawEducationRecord, error) {
	var rec RawEducationRecord

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return rec, fmt.Errorf("building record decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return rec, fmt.Errorf("decoding education record: %w", err)
	}

	return rec, nil
}

// FeatureVector is the fixed 8-dimensional numeric encoding consumed by the
// classifier. Field order is frozen; the trained model's feature semantics
// depend on it.
type FeatureVector struct {
	SourceDataset  int
	DegreeCode     int
	SpecCode       int
	CGPANorm       float64
	GraduationYear int
	CertCount      int
	InternBinary   int
	ProjectCount   int
}

// Values returns the vector in its canonical order:
// [sourceDatasetFlag, degreeCode, specCode, cgpaNormalized, graduationYear,
// certificationCount, internshipBinary, projectCount].
func (v FeatureVector) Values() [8]float64 {
	return [8]float64{
		float64(v.SourceDataset),
		float64(v.DegreeCode),
		float64(v.SpecCode),
		v.CGPANorm,
		float64(v.GraduationYear),
		float64(v.CertCount),
		float64(v.InternBinary),
		float64(v.ProjectCount),
	}
}

// Encode maps one raw record into the feature vector using the shared mapping
// store. It is deterministic and total: malformed input falls back to the
// documented defaults, never to an error. Both the batch pipeline and the
// live prediction path must go through this function; any second
// implementation would silently corrupt the training/serving contract.
func Encode(rec RawEducationRecord, store *mapping.Store, sourceFlag int) FeatureVector {
	cgpa := ParseFloat(rec.CGPA, 0)
	scale := ParseFloat(rec.CGPAOutOf, 0)
	if scale <= 0 {
		scale = DefaultCGPAScale
	}

	year := ParseInt(rec.YearOfGraduation, 0)
	if year == 0 {
		year = DefaultGraduationYear
	}

	intern := 0
	if strings.EqualFold(strings.TrimSpace(rec.Internship), "yes") ||
		strings.EqualFold(strings.TrimSpace(rec.EmploymentType), "internship") {
		intern = 1
	}

	projects := rec.Projects
	if strings.TrimSpace(projects) == "" {
		projects = rec.StProjCount
	}

	return FeatureVector{
		SourceDataset:  sourceFlag,
		DegreeCode:     store.CodeFor(mapping.TableDegree, rec.Degree),
		SpecCode:       store.CodeFor(mapping.TableSpec, rec.Specialization),
		CGPANorm:       cgpa / scale,
		GraduationYear: year,
		CertCount:      CountCertifications(rec.Certifications),
		InternBinary:   intern,
		ProjectCount:   ParseInt(projects, 0),
	}
}

// CountCertifications splits a comma separated certification list and counts
// the tokens that are not empty or whitespace-only.
func CountCertifications(raw string) int {
	if strings.TrimSpace(raw) == "" {
		return 0
	}

	count := 0
	for _, token := range strings.Split(raw, ",") {
		if strings.TrimSpace(token) != "" {
			count++
		}
	}

	return count
}

// ParseFloat parses a raw numeric field, returning def when the field is
// absent or unparsable.
func ParseFloat(raw string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return f
}

// ParseInt parses a raw integer field, returning def when the field is absent
// or unparsable. Fractional values are truncated the way the historical data
// was ingested.
func ParseInt(raw string, def int) int {
	trimmed := strings.TrimSpace(raw)
	i, err := strconv.Atoi(trimmed)
	if err == nil {
		return i
	}

	f, ferr := strconv.ParseFloat(trimmed, 64)
	if ferr != nil {
		return def
	}
	return int(f)
}
