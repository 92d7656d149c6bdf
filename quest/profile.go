package quest

import (
	"errors"
	"fmt"
	"strings"
)

// Profile is a user's self-reported state collected through intake.
// List fields are never nil once Normalize has run.
type Profile struct {
	Name             string           `json:"name"`
	Age              int              `json:"age"`
	Gender           string           `json:"gender"`
	Residence        Residence        `json:"residence"`
	HikikomoriStatus HikikomoriStatus `json:"hikikomoriStatus"`
	MentalState      MentalState      `json:"mentalState"`
	DigitalBehavior  DigitalBehavior  `json:"digitalBehavior"`
	Interests        Interests        `json:"interests"`
	Health           Health           `json:"health"`
	PastExperiences  PastExperiences  `json:"pastExperiences"`
}

type Residence struct {
	LivingSituation string `json:"livingSituation"`
	Environment     string `json:"environment"`
}

type HikikomoriStatus struct {
	StartDate         string   `json:"startDate"`
	AvgOutTimePerDay  string   `json:"avgOutTimePerDay"`
	OutingsLastMonth  int      `json:"outingsLastMonth"`
	UsualDestinations []string `json:"usualDestinations"`
}

type MentalState struct {
	AnxietyLevel     int      `json:"anxietyLevel"` // 1..5
	SocialDiscomfort string   `json:"socialDiscomfort"`
	EmotionalIssues  []string `json:"emotionalIssues"`
	SelfEfficacy     string   `json:"selfEfficacy"`
}

type DigitalBehavior struct {
	DailyScreenTime   string   `json:"dailyScreenTime"`
	Platforms         []string `json:"platforms"`
	OnlineConnections string   `json:"onlineConnections"`
}

type Interests struct {
	Likes    []string `json:"likes"`
	Goals    string   `json:"goals"`
	Dislikes []string `json:"dislikes"`
}

type Health struct {
	ChronicConditions string `json:"chronicConditions"`
	Lifestyle         string `json:"lifestyle"`
	PhysicalAbility   string `json:"physicalAbility"`
	Medication        string `json:"medication"`
}

type PastExperiences struct {
	TriedToGoOut bool     `json:"triedToGoOut"`
	Motivators   []string `json:"motivators"`
	FailReasons  []string `json:"failReasons"`
}

const (
	MinAnxiety = 1
	MaxAnxiety = 5
)

// Normalize replaces nil lists with empty ones.
func (p *Profile) Normalize() {
	for _, l := range []*[]string{
		&p.HikikomoriStatus.UsualDestinations,
		&p.MentalState.EmotionalIssues,
		&p.DigitalBehavior.Platforms,
		&p.Interests.Likes,
		&p.Interests.Dislikes,
		&p.PastExperiences.Motivators,
		&p.PastExperiences.FailReasons,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
}

// Validate checks the numeric ranges and that a name is present.
func (p Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Age < 0 {
		errs = append(errs, fmt.Errorf("age must not be negative, got %d", p.Age))
	}
	if a := p.MentalState.AnxietyLevel; a < MinAnxiety || a > MaxAnxiety {
		errs = append(errs, fmt.Errorf("anxietyLevel must be in [%d,%d], got %d", MinAnxiety, MaxAnxiety, a))
	}
	if p.HikikomoriStatus.OutingsLastMonth < 0 {
		errs = append(errs, fmt.Errorf("outingsLastMonth must not be negative, got %d", p.HikikomoriStatus.OutingsLastMonth))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	cp := p
	cp.HikikomoriStatus.UsualDestinations = cloneStrings(p.HikikomoriStatus.UsualDestinations)
	cp.MentalState.EmotionalIssues = cloneStrings(p.MentalState.EmotionalIssues)
	cp.DigitalBehavior.Platforms = cloneStrings(p.DigitalBehavior.Platforms)
	cp.Interests.Likes = cloneStrings(p.Interests.Likes)
	cp.Interests.Dislikes = cloneStrings(p.Interests.Dislikes)
	cp.PastExperiences.Motivators = cloneStrings(p.PastExperiences.Motivators)
	cp.PastExperiences.FailReasons = cloneStrings(p.PastExperiences.FailReasons)
	return cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
