package quest

import "strings"

// Stage is a step of the transtheoretical behavior-change model.
type Stage string

const (
	StagePrecontemplation Stage = "precontemplation"
	StageContemplation    Stage = "contemplation"
	StagePreparation      Stage = "preparation"
	StageAction           Stage = "action"
	StageMaintenance      Stage = "maintenance"
)

// Stages lists every stage in model order.
var Stages = []Stage{
	StagePrecontemplation,
	StageContemplation,
	StagePreparation,
	StageAction,
	StageMaintenance,
}

var stageLabels = map[Stage]string{
	StagePrecontemplation: "무관심기",
	StageContemplation:    "숙고기",
	StagePreparation:      "준비기",
	StageAction:           "행동기",
	StageMaintenance:      "유지기",
}

// Index returns the position of s in model order, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five stages.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// Label returns the Korean display name.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStage accepts an English stage name (any case) or its Korean label.
// Labels may carry trailing decoration such as "준비기 (Preparation)".
func ParseStage(raw string) (Stage, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	lower := strings.ToLower(v)
	for _, st := range Stages {
		if lower == string(st) {
			return st, true
		}
	}
	for _, st := range Stages {
		if strings.HasPrefix(v, stageLabels[st]) {
			return st, true
		}
	}
	return "", false
}
