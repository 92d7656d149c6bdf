package quest

import (
	"regexp"
	"strconv"
)

const (
	// EscalatedSuffix marks a quest whose family was completed before.
	EscalatedSuffix = " (향상된 버전)"
	// IntensifierSuffix is appended when a condition has no minute duration to scale.
	IntensifierSuffix = " (더 적극적으로)"

	// Multipliers are kept in tenths so that ceiling rounding is exact.
	durationTenths      = 15
	baseMultiplierTenth = 10
	maxMultiplierTenths = 20
)

var (
	minutesRe = regexp.MustCompile(`(\d+)분`)
	pointsRe  = regexp.MustCompile(`\+(\d+)`)
)

// Engine turns a stage and history into the final quest list.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an Engine over the given catalog. A nil catalog selects
// DefaultCatalog.
func NewEngine(c *Catalog) *Engine {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Engine{catalog: c}
}

// Catalog returns the engine's template catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Generate returns exactly QuestsPerSet quests for the stage. Quests whose
// title token was completed in history are escalated; the rest are returned
// as instantiated.
func (e *Engine) Generate(p Profile, st Stage, history []QuestSet) []Quest {
	base := e.catalog.Instantiate(st, p)
	if len(history) == 0 {
		return base
	}
	sum := Aggregate(history)
	tenths := multiplierTenths(sum.TotalCompleted)
	for i, q := range base {
		if sum.Has(TitleToken(q.Title)) {
			base[i] = escalate(q, tenths)
		}
	}
	return base
}

// Multiplier returns the reward multiplier for a completion count:
// 1 + 0.1 per completed quest, capped at 2.
func Multiplier(totalCompleted int) float64 {
	return float64(multiplierTenths(totalCompleted)) / 10
}

func multiplierTenths(totalCompleted int) int {
	if totalCompleted < 0 {
		totalCompleted = 0
	}
	if totalCompleted >= maxMultiplierTenths-baseMultiplierTenth {
		return maxMultiplierTenths
	}
	return baseMultiplierTenth + totalCompleted
}

func escalate(q Quest, rewardTenths int) Quest {
	q.Title += EscalatedSuffix
	q.CompletionCondition = scaleMinutes(q.CompletionCondition)
	q.Reward = scaleNumbers(pointsRe, q.Reward, "+", "", rewardTenths)
	return q
}

func scaleMinutes(cond string) string {
	out := scaleNumbers(minutesRe, cond, "", "분", durationTenths)
	if out == cond {
		return cond + IntensifierSuffix
	}
	return out
}

// scaleNumbers rewrites every match of re (whose first group is an integer)
// to prefix + ceil(n*tenths/10) + suffix.
func scaleNumbers(re *regexp.Regexp, text, prefix, suffix string, tenths int) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return m
		}
		return prefix + strconv.Itoa(ceilTenths(n, tenths)) + suffix
	})
}

func ceilTenths(n, tenths int) int {
	return (n*tenths + 9) / 10
}
