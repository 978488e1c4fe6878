// Package openapi collects the OpenAPI documents plugins ship and writes them
// to the documentation directory.
//
// A plugin documents its API in <plugin>/openapi.json. Requesting specific
// plugins writes one <id>.json per plugin; requesting none merges every
// document into plugins.json.
package openapi

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/teranos/plugctl/am"
	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
	"github.com/teranos/plugctl/registry"
)

const (
	// DocFile is the per-plugin document name
	DocFile = "openapi.json"
	// MergedFile is written when all plugins are merged
	MergedFile = "plugins.json"
)

// ErrNoDocument is recorded for plugins without an openapi.json
var ErrNoDocument = errors.New("no OpenAPI document")

// Outcome is what happened to one plugin's document
type Outcome struct {
	ID   string
	Name string
	// Output is the file the document ended up in
	Output string
	Err    error
}

// Report summarizes a generation run
type Report struct {
	Generated []Outcome
	Skipped   []Outcome
	// Merged is the merged file, empty when nothing was merged
	Merged string
}

// Generator writes plugin documents into one output directory
type Generator struct {
	outDir string
	logger *zap.SugaredLogger
}

// NewGenerator creates a generator writing into outDir
func NewGenerator(outDir string, l *zap.SugaredLogger) *Generator {
	return &Generator{outDir: outDir, logger: logger.OrNop(l)}
}

// OutDir returns the output directory
func (g *Generator) OutDir() string {
	return g.outDir
}

// Generate writes the documents of entries. With merge every document goes
// into MergedFile; otherwise each plugin gets <id>.json.
// Plugins without a usable document are skipped and reported.
func (g *Generator) Generate(entries []registry.Entry, merge bool) (*Report, error) {
	report := &Report{}

	type doc struct {
		outcome Outcome
		data    []byte
	}
	var docs []doc

	for _, e := range entries {
		outcome := Outcome{ID: e.Key(), Name: e.Key()}
		if e.Manifest != nil {
			outcome.Name = e.Manifest.DisplayName()
		}

		data, err := readDocument(e.Path)
		if err != nil {
			outcome.Err = err
			report.Skipped = append(report.Skipped, outcome)
			g.logger.Debugw("Skipping plugin documentation",
				logger.FieldPlugin, outcome.ID,
				logger.FieldError, err)
			continue
		}
		docs = append(docs, doc{outcome: outcome, data: data})
	}

	if len(docs) == 0 {
		return report, nil
	}

	if err := os.MkdirAll(g.outDir, am.DefaultDirPermissions); err != nil {
		return report, errors.Wrapf(err, "failed to create output directory %s", g.outDir)
	}

	if !merge {
		for _, d := range docs {
			out := filepath.Join(g.outDir, d.outcome.ID+".json")
			if err := manifest.WriteFile(out, pretty.PrettyOptions(d.data, prettyOptions)); err != nil {
				d.outcome.Err = err
				report.Skipped = append(report.Skipped, d.outcome)
				continue
			}
			d.outcome.Output = out
			report.Generated = append(report.Generated, d.outcome)
			g.logger.Infow("Generated plugin documentation",
				logger.FieldPlugin, d.outcome.ID,
				logger.FieldFile, out)
		}
		return report, nil
	}

	raw := make([][]byte, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, d.data)
	}
	merged, err := Merge(raw...)
	if err != nil {
		return report, err
	}

	out := filepath.Join(g.outDir, MergedFile)
	if err := manifest.WriteFile(out, merged); err != nil {
		return report, errors.Wrapf(err, "failed to write %s", out)
	}
	for _, d := range docs {
		d.outcome.Output = out
		report.Generated = append(report.Generated, d.outcome)
	}
	report.Merged = out

	g.logger.Infow("Merged plugin documentation",
		logger.FieldFile, out,
		logger.FieldCount, len(docs))
	return report, nil
}

// readDocument loads and checks <dir>/openapi.json
func readDocument(dir string) ([]byte, error) {
	file := filepath.Join(dir, DocFile)
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoDocument, "%s", file)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, errors.NewInvalidRequestError("%s is not a JSON object", file)
	}
	return data, nil
}
