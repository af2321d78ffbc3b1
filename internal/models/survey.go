package models

// LikertOption is a single exit-survey answer.
type LikertOption string

const (
	LikertStronglyAgree LikertOption = "STRONGLY_AGREE"
	LikertAgree         LikertOption = "AGREE"
	LikertNeutral       LikertOption = "NEUTRAL"
	LikertDisagree      LikertOption = "DISAGREE"
)

// Score maps the option onto the 0..3 attainment scale.
func (o LikertOption) Score() (float64, bool) {
	switch o {
	case LikertStronglyAgree:
		return 3, true
	case LikertAgree:
		return 2, true
	case LikertNeutral:
		return 1, true
	case LikertDisagree:
		return 0, true
	default:
		return 0, false
	}
}

// SurveyAggregate is an already-aggregated indirect signal for a CO or PO.
type SurveyAggregate struct {
	EntityID     string  `db:"entity_id" json:"entity_id"`
	Responses    int     `db:"responses" json:"responses"`
	AverageScore float64 `db:"average_score" json:"average_score"`
}

// SurveyTally is the number of responses choosing one option for a CO or PO.
type SurveyTally struct {
	EntityID string       `db:"entity_id" json:"entity_id"`
	Answer   LikertOption `db:"answer" json:"answer"`
	Count    int          `db:"responses" json:"responses"`
}
