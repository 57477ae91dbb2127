package report

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"pyamend/internal/rules"
	"pyamend/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifByteRegion `json:"deletedRegion"`
	InsertedContent sarifMessage    `json:"insertedContent"`
}

type sarifByteRegion struct {
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from the run's findings.
// All file URIs are made relative to projectRoot; absolute paths are never
// included so that reports are safe to share.
func GenerateSARIF(projectRoot string, enabled []rules.Rule, diagnostics []rules.Diagnostic) ([]byte, error) {
	results := make([]sarifResult, 0, len(diagnostics))
	for _, d := range diagnostics {
		uri := relativeURI(projectRoot, d.Path)
		artifact := sarifArtifactLocation{URI: uri, URIBaseID: "%SRCROOT%"}

		result := sarifResult{
			RuleID:  d.RuleID,
			Level:   "warning",
			Message: sarifMessage{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: artifact,
					Region: &sarifRegion{
						StartLine:   d.Span.StartLine,
						StartColumn: d.Span.StartCol,
						EndLine:     d.Span.EndLine,
						EndColumn:   d.Span.EndCol,
					},
				},
			}},
		}

		if d.Fix != nil {
			replacements := make([]sarifReplacement, 0, len(d.Fix.Edits))
			for _, e := range d.Fix.Edits {
				replacements = append(replacements, sarifReplacement{
					DeletedRegion:   sarifByteRegion{ByteOffset: e.Start, ByteLength: e.End - e.Start},
					InsertedContent: sarifMessage{Text: e.New},
				})
			}
			result.Fixes = []sarifFix{{
				Description:     sarifMessage{Text: d.Fix.Title},
				ArtifactChanges: []sarifArtifactChange{{ArtifactLocation: artifact, Replacements: replacements}},
			}}
		}

		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pyamend",
						Version: version.Version,
						Rules:   buildSARIFRules(enabled),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

func buildSARIFRules(enabled []rules.Rule) []sarifRule {
	out := make([]sarifRule, 0, len(enabled))
	for _, r := range enabled {
		out = append(out, sarifRule{
			ID:               r.ID(),
			Name:             r.Name(),
			ShortDescription: sarifMessage{Text: r.Description()},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	return out
}

func relativeURI(projectRoot, path string) string {
	if projectRoot != "" {
		if rel, err := filepath.Rel(projectRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
