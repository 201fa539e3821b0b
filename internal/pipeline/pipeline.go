// Package pipeline streams the heterogeneous source datasets through the
// shared feature encoder and emits the normalized training corpus.
package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/encoder"
	"github.com/avinashm/careerpath/internal/mapping"
)

// Header of the output corpus. Frozen: the training side consumes it by name.
var Header = []string{
	"Source_Dataset",
	"Original_Degree",
	"Original_CGPA",
	"ML_Degree_Code",
	"ML_Spec_Code",
	"ML_CGPA_Norm",
	"ML_YoG",
	"ML_Cert_Count",
}

const defaultSampleSize = 3

// ColumnMapping names the source columns carrying each semantic field. The
// datasets disagree on naming, so this is configuration, not logic.
type ColumnMapping struct {
	Degree         string `mapstructure:"degree"`
	Specialization string `mapstructure:"specialization"`
	CGPA           string `mapstructure:"cgpa"`
	Year           string `mapstructure:"year"`
	Certifications string `mapstructure:"certifications"`
}

// DatasetConfig describes one source dataset.
type DatasetConfig struct {
	Name       string        `mapstructure:"name"`
	File       string        `mapstructure:"file"`
	CGPAScale  string        `mapstructure:"cgpa-scale"`
	SourceFlag int           `mapstructure:"source-flag"`
	Columns    ColumnMapping `mapstructure:"columns"`
}

// DatasetReport summarizes one processed dataset.
type DatasetReport struct {
	Name    string
	Records int
	Skipped bool
}

// Report summarizes a whole pipeline run.
type Report struct {
	Datasets []DatasetReport
	Records  int
	// Sample holds the first few encoded vectors for diagnostics.
	Sample []encoder.FeatureVector
}

// Pipeline encodes configured datasets into a single corpus file. The mapping
// store is injected so batch and live encoding share one code table.
type Pipeline struct {
	store      *mapping.Store
	log        *zap.Logger
	sampleSize int
}

func New(store *mapping.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		log:        log,
		sampleSize: defaultSampleSize,
	}
}

// Run processes every configured dataset in order and writes the corpus to
// outPath. A missing input file is logged and skipped; the run continues with
// the remaining datasets and still succeeds.
func (p *Pipeline) Run(datasets []DatasetConfig, outPath string) (*Report, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("creating corpus file %q: %w", outPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("writing corpus header: %w", err)
	}

	report := &Report{}
	for _, ds := range datasets {
		dsReport, err := p.processDataset(ds, w, report)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				p.log.Error("input file not found, skipping dataset",
					zap.String("dataset", ds.Name),
					zap.String("file", ds.File),
				)
				report.Datasets = append(report.Datasets, DatasetReport{Name: ds.Name, Skipped: true})
				continue
			}
			return nil, fmt.Errorf("processing dataset %q: %w", ds.Name, err)
		}

		p.log.Info("dataset processed",
			zap.String("dataset", ds.Name),
			zap.Int("records", dsReport.Records),
		)

		report.Datasets = append(report.Datasets, dsReport)
		report.Records += dsReport.Records
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing corpus file: %w", err)
	}

	return report, nil
}

// processDataset streams one dataset row by row. Only the encoded output
// accumulates; the input is never buffered whole.
func (p *Pipeline) processDataset(ds DatasetConfig, w *csv.Writer, run *Report) (DatasetReport, error) {
	report := DatasetReport{Name: ds.Name}

	f, err := os.Open(ds.File)
	if err != nil {
		return report, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return report, nil
		}
		return report, fmt.Errorf("reading header: %w", err)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("reading row: %w", err)
		}

		rec, err := p.decodeRow(ds, header, row)
		if err != nil {
			return report, err
		}

		vec := encoder.Encode(rec, p.store, ds.SourceFlag)
		if len(run.Sample) < p.sampleSize {
			run.Sample = append(run.Sample, vec)
		}

		if err := w.Write(corpusRow(ds.Name, rec, vec)); err != nil {
			return report, fmt.Errorf("writing corpus row: %w", err)
		}

		report.Records++
	}

	return report, nil
}

// decodeRow remaps the source's column names onto the semantic fields and
// decodes them into a raw record. The CGPA scale denominator comes from the
// dataset configuration, not from the row.
func (p *Pipeline) decodeRow(ds DatasetConfig, header, row []string) (encoder.RawEducationRecord, error) {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			fields[name] = row[i]
		}
	}

	return encoder.DecodeRecord(map[string]any{
		"degree":           fields[ds.Columns.Degree],
		"specialization":   fields[ds.Columns.Specialization],
		"cgpa":             fields[ds.Columns.CGPA],
		"cgpaOutOf":        ds.CGPAScale,
		"yearOfGraduation": fields[ds.Columns.Year],
		"certifications":   fields[ds.Columns.Certifications],
	})
}

func corpusRow(dataset string, rec encoder.RawEducationRecord, vec encoder.FeatureVector) []string {
	return []string{
		dataset,
		rec.Degree,
		rec.CGPA,
		strconv.Itoa(vec.DegreeCode),
		strconv.Itoa(vec.SpecCode),
		strconv.FormatFloat(vec.CGPANorm, 'g', -1, 64),
		strconv.Itoa(vec.GraduationYear),
		strconv.Itoa(vec.CertCount),
	}
}
