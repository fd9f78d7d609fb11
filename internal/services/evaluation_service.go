package services

import (
	"strings"

	"doc2db/internal/models"
)

// EvaluationService scores extraction output against a ground-truth payload
// and grades DDL with cheap structural heuristics. Research tooling, not part
// of the request pipeline.
type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

type PRF struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

type AccuracyReport struct {
	Entities      PRF `json:"entities"`
	Relationships PRF `json:"relationships"`
}

type QualityReport struct {
	TableCount   int    `json:"table_count"`
	TablesWithPK int    `json:"tables_with_pk"`
	FKMentions   int    `json:"fk_mentions"`
	ScoreNote    string `json:"score_note"`
}

// ExtractionAccuracy compares an extracted payload against ground truth.
// Entities match on lowercased name, relationships on the lowercased
// (from, to) pair.
func (s *EvaluationService) ExtractionAccuracy(extracted, groundTruth *models.RawExtraction) *AccuracyReport {
	ePred := entityNames(extracted)
	eTrue := entityNames(groundTruth)
	rPred := relationshipKeys(extracted)
	rTrue := relationshipKeys(groundTruth)

	return &AccuracyReport{
		Entities:      scorePRF(ePred, eTrue),
		Relationships: scorePRF(rPred, rTrue),
	}
}

// NormalizationQuality grades DDL by line scanning: number of CREATE TABLE
// statements, primary key declarations, and foreign key references.
func (s *EvaluationService) NormalizationQuality(ddl string) *QualityReport {
	report := &QualityReport{
		ScoreNote: "Higher FK and PK usage suggests better normalization.",
	}
	for _, line := range strings.Split(strings.ToUpper(ddl), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if strings.Contains(line, "CREATE TABLE") {
			report.TableCount++
		}
		if strings.Contains(line, "PRIMARY KEY") {
			report.TablesWithPK++
		}
		if strings.Contains(line, "REFERENCES") {
			report.FKMentions++
		}
	}
	return report
}

func entityNames(raw *models.RawExtraction) map[string]bool {
	names := make(map[string]bool)
	if raw == nil {
		return names
	}
	for _, e := range raw.Entities {
		names[strings.ToLower(e.Name)] = true
	}
	return names
}

func relationshipKeys(raw *models.RawExtraction) map[string]bool {
	keys := make(map[string]bool)
	if raw == nil {
		return keys
	}
	for _, r := range raw.Relationships {
		keys[strings.ToLower(r.From)+"\x00"+strings.ToLower(r.To)] = true
	}
	return keys
}

func scorePRF(pred, truth map[string]bool) PRF {
	tp := 0
	for k := range pred {
		if truth[k] {
			tp++
		}
	}
	var p PRF
	if len(pred) > 0 {
		p.Precision = float64(tp) / float64(len(pred))
	}
	if len(truth) > 0 {
		p.Recall = float64(tp) / float64(len(truth))
	}
	if p.Precision+p.Recall > 0 {
		p.F1 = 2 * p.Precision * p.Recall / (p.Precision + p.Recall)
	}
	return p
}
