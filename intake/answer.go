package intake

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kasuganosora/hikiquest/server/quest"
)

// affirmatives mark a yes answer to the triedToGoOut question.
var affirmatives = []string{"네", "예", "있"}

// Apply writes an answer for the question key into p.
func Apply(p *quest.Profile, key, answer string) error {
	a := strings.TrimSpace(answer)
	switch key {
	case "name":
		p.Name = a
	case "age":
		p.Age = max(leadingInt(a, 0), 0)
	case "gender":
		p.Gender = a
	case "livingSituation":
		p.Residence.LivingSituation = a
	case "environment":
		p.Residence.Environment = a
	case "startDate":
		p.HikikomoriStatus.StartDate = a
	case "avgOutTimePerDay":
		p.HikikomoriStatus.AvgOutTimePerDay = a
	case "outingsLastMonth":
		p.HikikomoriStatus.OutingsLastMonth = max(leadingInt(a, 0), 0)
	case "usualDestinations":
		p.HikikomoriStatus.UsualDestinations = splitList(a)
	case "anxietyLevel":
		p.MentalState.AnxietyLevel = min(max(leadingInt(a, quest.MinAnxiety), quest.MinAnxiety), quest.MaxAnxiety)
	case "socialDiscomfort":
		p.MentalState.SocialDiscomfort = a
	case "emotionalIssues":
		p.MentalState.EmotionalIssues = splitList(a)
	case "selfEfficacy":
		p.MentalState.SelfEfficacy = a
	case "dailyScreenTime":
		p.DigitalBehavior.DailyScreenTime = a
	case "platforms":
		p.DigitalBehavior.Platforms = splitList(a)
	case "onlineConnections":
		p.DigitalBehavior.OnlineConnections = a
	case "likes":
		p.Interests.Likes = splitList(a)
	case "goals":
		p.Interests.Goals = a
	case "dislikes":
		p.Interests.Dislikes = splitList(a)
	case "chronicConditions":
		p.Health.ChronicConditions = a
	case "lifestyle":
		p.Health.Lifestyle = a
	case "physicalAbility":
		p.Health.PhysicalAbility = a
	case "medication":
		p.Health.Medication = a
	case "triedToGoOut":
		p.PastExperiences.TriedToGoOut = containsAny(a, affirmatives)
	case "motivators":
		p.PastExperiences.Motivators = splitList(a)
	case "failReasons":
		p.PastExperiences.FailReasons = splitList(a)
	default:
		return fmt.Errorf("intake: unknown question key %q", key)
	}
	return nil
}

// leadingInt parses the optionally signed integer at the start of s.
// It returns def when s does not start with a digit, or when the value is zero.
func leadingInt(s string, def int) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return def
	}
	return n
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimFunc(part, unicode.IsSpace); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
