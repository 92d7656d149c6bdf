package quest

import "strings"

// Outing thresholds for the action and maintenance rules.
const (
	actionOutings      = 3 // strictly more than
	maintenanceOutings = 5 // at least
	highAnxiety        = 4
)

// highEfficacyMarkers are substrings of the self-efficacy answer read as "high" or "good".
var highEfficacyMarkers = []string{"높", "좋"}

var stageReasons = map[Stage]string{
	StagePrecontemplation: "외출 시도 경험이 없고 불안감이 높아 변화에 대한 관심이 낮은 상태입니다.",
	StageContemplation:    "외출을 시도했지만 실패 경험이 있어 변화의 필요성을 인식하고 있는 상태입니다.",
	StagePreparation:      "최근 소수의 외출 경험이 있어 변화를 위한 준비를 하고 있는 상태입니다.",
	StageAction:           "정기적인 외출이 가능해 실제 행동 변화를 실천하고 있는 상태입니다.",
	StageMaintenance:      "꾸준한 외출과 높은 자기효능감으로 긍정적 변화를 유지하고 있는 상태입니다.",
}

// Classify maps a profile to its behavior-change stage.
// Rules are evaluated in order and the first match wins. The action rule
// precedes the maintenance rule, so a profile meeting both is classified as
// action and maintenance is only reachable if the action rule is changed.
func Classify(p Profile) Stage {
	past := p.PastExperiences
	outings := p.HikikomoriStatus.OutingsLastMonth

	switch {
	case !past.TriedToGoOut && p.MentalState.AnxietyLevel >= highAnxiety:
		return StagePrecontemplation
	case past.TriedToGoOut && len(past.FailReasons) > 0:
		return StageContemplation
	case outings > actionOutings:
		return StageAction
	case outings >= maintenanceOutings && hasHighEfficacy(p.MentalState.SelfEfficacy):
		return StageMaintenance
	default:
		return StagePreparation
	}
}

func hasHighEfficacy(text string) bool {
	for _, m := range highEfficacyMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// StageReason returns the fixed one-sentence justification for a stage.
// The profile does not influence the text.
func StageReason(_ Profile, s Stage) string {
	return stageReasons[s]
}
