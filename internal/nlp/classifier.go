package nlp

import (
	"fmt"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
)

const (
	// canonicalFastPathConfidence is the score at which a catalog match wins
	// outright and skips the layered detector.
	canonicalFastPathConfidence = 0.75

	minCanonicalConfidence = 0.3
	maxAlternatives        = 3
)

// Classifier turns a raw Turkish question into an intent analysis. It is
// stateless apart from the shared extractor and safe for concurrent use.
type Classifier struct {
	extractor *Extractor
	logger    logger.Logger
}

// NewClassifier builds a classifier with a fresh extractor.
func NewClassifier(log logger.Logger) *Classifier {
	return &Classifier{
		extractor: NewExtractor(),
		logger:    log,
	}
}

// Classify runs the full pipeline: normalize, extract entities, match the
// canonical catalog, score intent and shape triggers, then refine.
func (c *Classifier) Classify(question string) *models.IntentAnalysisResult {
	qn := Normalize(question)

	res := &models.IntentAnalysisResult{
		Question:   question,
		Normalized: qn,
	}
	if qn == "" {
		res.QuestionType = models.QuestionMaintenanceHistory
		res.OutputShape = models.ShapeDetailList
		res.IntentConf = 0.3
		res.ShapeConf = 0.5
		return res
	}

	ents := c.extractor.Extract(question)
	res.Entities = ents

	matches := FindMatches(qn, minCanonicalConfidence)
	for i, m := range matches {
		if i >= maxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, models.CanonicalMatch{
			ID:         canonicalID(m.Question),
			Text:       m.Question.Description,
			Confidence: m.Confidence,
		})
	}

	if len(matches) > 0 && matches[0].Confidence >= canonicalFastPathConfidence {
		best := matches[0]
		res.MatchedQuestion = &models.CanonicalMatch{
			ID:         canonicalID(best.Question),
			Text:       best.Question.Description,
			Confidence: best.Confidence,
		}
		res.QuestionType = best.Question.QuestionType
		res.OutputShape = best.Question.OutputShape
		res.IntentConf = best.Confidence
		res.ShapeConf = best.Confidence

		// entity-driven refinement still runs so explicit vehicle IDs,
		// comparisons etc. can overrule a generic catalog hit
		ref := Refine(qn, &ents, res.QuestionType, res.OutputShape, res.IntentConf, res.ShapeConf)
		ref = ApplyPivotOverride(qn, &ents, ref)
		c.apply(res, ref)
		return res
	}

	intent, intentConf := DetectIntent(qn)
	shape, shapeConf := DetectShape(qn, intent)

	ref := Refine(qn, &ents, intent, shape, intentConf, shapeConf)
	ref = ApplyPivotOverride(qn, &ents, ref)
	c.apply(res, ref)

	c.logger.Debug("question classified", map[string]interface{}{
		"normalized":   qn,
		"questionType": string(res.QuestionType),
		"outputShape":  string(res.OutputShape),
		"intentConf":   res.IntentConf,
		"shapeConf":    res.ShapeConf,
	})
	return res
}

func (c *Classifier) apply(res *models.IntentAnalysisResult, ref Refinement) {
	res.QuestionType = ref.QuestionType
	res.OutputShape = ref.OutputShape
	res.IntentConf = ref.IntentConf
	res.ShapeConf = ref.ShapeConf
}

// MatchedCanonical returns the catalog entry behind a classified result, or
// nil when the layered path decided the answer.
func (c *Classifier) MatchedCanonical(res *models.IntentAnalysisResult) *CanonicalQuestion {
	if res.MatchedQuestion == nil {
		return nil
	}
	for i := range canonicalCatalog {
		if canonicalID(&canonicalCatalog[i]) == res.MatchedQuestion.ID {
			return &canonicalCatalog[i]
		}
	}
	return nil
}

func canonicalID(cq *CanonicalQuestion) string {
	id := fmt.Sprintf("%s/%s", cq.QuestionType, cq.OutputShape)
	if cq.PrimaryDimension != "" {
		id += "/" + cq.PrimaryDimension
	}
	if cq.SecondaryDimension != "" {
		id += "+" + cq.SecondaryDimension
	}
	if cq.GroupDimension != "" {
		id += "@" + cq.GroupDimension
	}
	return id
}
