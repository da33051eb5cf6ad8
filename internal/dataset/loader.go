package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/r3e-network/datalake-ingestion/internal/logging"
)

var validKinds = map[string]string{"rela": "relA", "relb": "relB"}
var validExtractionKinds = map[string]string{"procedure": "procedure", "package": "package", "query": "query"}
var validProviders = map[string]string{"fs": "fs", "blob": "blob"}

// Load reads every dataset-*.json file under dir and parses each into a
// DatasetSpec. A per-file parse or validation error is logged and that file
// is skipped; other specs still load.
func Load(dir string, log *logging.Logger) ([]*DatasetSpec, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "dataset-*.json"))
	if err != nil {
		return nil, fmt.Errorf("dataset: glob %s: %w", dir, err)
	}

	specs := make([]*DatasetSpec, 0, len(matches))
	for _, path := range matches {
		spec, err := loadOne(path)
		if err != nil {
			if log != nil {
				log.WithField("file", path).WithField("error", err).Warn("dataset: skipping invalid spec file")
			}
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func loadOne(path string) (*DatasetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("dataset: %s: invalid json", path)
	}

	var spec DatasetSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	// Re-coerce source parameters to narrow native scalar types rather than
	// the float64/interface soup encoding/json would otherwise produce.
	if params := gjson.GetBytes(data, "source.parameters"); params.Exists() && params.IsObject() {
		spec.Source.Parameters = coerceParameters(params)
	}

	if err := validateAndNormalize(&spec); err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return &spec, nil
}

// coerceParameters narrows each gjson value to int64, float64, bool, string,
// or nil — the set C3 drivers expect.
func coerceParameters(obj gjson.Result) map[string]any {
	out := make(map[string]any)
	obj.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = coerceScalar(value)
		return true
	})
	return out
}

func coerceScalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		if v.Num == float64(int64(v.Num)) && !strings.ContainsAny(v.Raw, ".eE") {
			return v.Int()
		}
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Value()
	}
}

func validateAndNormalize(spec *DatasetSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if spec.Cron == "" {
		return fmt.Errorf("missing required field: cron")
	}

	kind, ok := validKinds[strings.ToLower(spec.Source.Kind)]
	if !ok {
		return fmt.Errorf("unknown source.kind: %q", spec.Source.Kind)
	}
	spec.Source.Kind = kind

	ek, ok := validExtractionKinds[strings.ToLower(spec.Source.ExtractionKind)]
	if !ok {
		return fmt.Errorf("unknown source.extractionKind: %q", spec.Source.ExtractionKind)
	}
	spec.Source.ExtractionKind = ek

	if spec.Source.ConnectionKey == "" {
		return fmt.Errorf("missing required field: source.connectionKey")
	}
	if spec.Source.CommandTimeoutSec <= 0 {
		spec.Source.CommandTimeoutSec = 300
	}

	switch ek {
	case "procedure":
		if spec.Source.Procedure == "" {
			return fmt.Errorf("missing required field: source.procedure")
		}
	case "package":
		if spec.Source.Package == "" {
			return fmt.Errorf("missing required field: source.package")
		}
	case "query":
		if spec.Source.SQLFile == "" {
			return fmt.Errorf("missing required field: source.sqlFile")
		}
	}

	provider, ok := validProviders[strings.ToLower(spec.Destination.Provider)]
	if !ok {
		return fmt.Errorf("unknown destination.provider: %q", spec.Destination.Provider)
	}
	spec.Destination.Provider = provider

	if spec.Output.FileNamePattern == "" {
		return fmt.Errorf("missing required field: output.fileNamePattern")
	}
	if spec.Output.Compression == "" {
		spec.Output.Compression = "snappy"
	}

	for i := range spec.Transformations {
		t := &spec.Transformations[i]
		if t.Type == "" {
			return fmt.Errorf("transformation[%d]: missing required field: type", i)
		}
	}

	return nil
}
