// Package grafana renders a Grafana dashboard for the GreptimeDB level archive.
package grafana

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"soleondash/internal/gauge"
	"soleondash/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// DatasourceEnv names the variable holding the Grafana datasource uid.
const DatasourceEnv = "GREPTIMEDB_DATASOURCE_UID"

// Threshold is one coloured step of the level panels.
type Threshold struct {
	Value float64
	Color string
}

type data struct {
	Table      string
	Thresholds []Threshold
}

func thresholds() []Threshold {
	out := make([]Threshold, 0, int(gauge.High)+1)
	for b := gauge.Low; b <= gauge.High; b++ {
		out = append(out, Threshold{Value: float64(b) * gauge.BandWidth, Color: string(b.Color())})
	}
	return out
}

// Render writes the dashboards for table into outDir. The datasource uid
// must be set in the environment.
func Render(outDir, table string) error {
	if table == "" {
		table = telemetry.ArchiveTableName
	}
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	tpls, err := template.New("").Funcs(funcMap).ParseFS(templates, "templates/*.json.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	d := data{Table: table, Thresholds: thresholds()}
	for _, t := range tpls.Templates() {
		if !strings.HasSuffix(t.Name(), ".tmpl") {
			continue
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(t.Name(), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, d); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
