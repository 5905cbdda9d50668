package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

var stubEmotions = []string{"Hopeful", "Calm", "Anxious", "Grateful", "Reflective", "Uncertain", "Motivated"}

// Stub is a deterministic Analyzer for development and tests. Scores and
// labels are derived from an FNV-1a hash of the input, so the same journal
// text always produces the same analysis.
type Stub struct{}

// NewStub returns a Stub analyzer.
func NewStub() *Stub { return &Stub{} }

var _ Analyzer = (*Stub)(nil)

// rng is a tiny splitmix-style sequence seeded from the content hash.
// It exists so each derived field consumes an independent value instead of
// slicing one hash into correlated bits.
type rng struct{ s uint64 }

func (r *rng) next() uint64 {
	r.s += 0x9e3779b97f4a7c15
	z := r.s
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (r *rng) intn(base, span int) int { return base + int(r.next()%uint64(span)) }

// AnalyzeDailyJournal derives a structured analysis from the journal text.
// The mapping is stable per input; a handful of keyword nudges keep the
// output plausible for demo content without making it less deterministic.
func (s *Stub) AnalyzeDailyJournal(_ context.Context, content string) (*DailyResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("ai: empty journal content")
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(trimmed))
	r := &rng{s: h.Sum64()}
	low := strings.ToLower(trimmed)

	res := &DailyResult{
		ConfidenceScore: r.intn(35, 56),
		AbundanceScore:  r.intn(30, 56),
		ClarityScore:    r.intn(40, 51),
		GratitudeScore:  r.intn(40, 56),
		ResistanceScore: r.intn(10, 61),
		DominantEmotion: stubEmotions[r.next()%uint64(len(stubEmotions))],
		OverallTone:     AllowedTones[r.next()%uint64(len(AllowedTones))],
		TimeHorizon:     AllowedTimeHorizons[r.next()%uint64(len(AllowedTimeHorizons))],
	}

	res.GoalPresent = strings.Contains(low, "goal") || strings.Contains(low, "plan") || r.next()%3 == 0
	res.SelfDoubtPresent = strings.Contains(low, "doubt") || strings.Contains(low, "not sure") || r.next()%4 == 0

	if strings.Contains(low, "grateful") || strings.Contains(low, "thank") {
		res.GratitudeScore = ClampScore(res.GratitudeScore + 15)
		res.DominantEmotion = "Grateful"
	}
	if strings.Contains(low, "stuck") || strings.Contains(low, "overwhelm") {
		res.ResistanceScore = ClampScore(res.ResistanceScore + 15)
	}

	n := 1 + int(r.next()%4)
	start := int(r.next() % uint64(len(AllowedBehavioralTags)))
	step := 1 + int(r.next()%7)
	for i := 0; i < n; i++ {
		res.BehavioralTags = append(res.BehavioralTags, AllowedBehavioralTags[(start+i*step)%len(AllowedBehavioralTags)])
	}
	res.BehavioralTags = dedupe(res.BehavioralTags)

	normalizeDaily(res)
	return res, nil
}

// GenerateWeeklyInsight composes a narrative from aggregates only. Below
// MinWeeklyEntries it returns the standing placeholder; otherwise the text
// is a pure function of the aggregates.
func (s *Stub) GenerateWeeklyInsight(_ context.Context, agg WeeklyAggregates) (*WeeklyResult, error) {
	if agg.EntryCount < MinWeeklyEntries {
		return &WeeklyResult{
			SummaryText: fmt.Sprintf(
				"Weekly insights require at least %d analyzed journal entries. You have %d. Keep journaling and analyzing!",
				MinWeeklyEntries, agg.EntryCount),
			ReflectionQuestion:  "What's on your mind today?",
			DominantWeekEmotion: "Reflective",
		}, nil
	}

	emotion := agg.DominantEmotion
	if emotion == "" {
		emotion = "Reflective"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You analyzed %d entries this week, and the overall feeling that surfaced most was %s.",
		agg.EntryCount, strings.ToLower(emotion))
	b.WriteString(" " + trendSentence("confidence", agg.Trends.Confidence))
	b.WriteString(" " + trendSentence("gratitude", agg.Trends.Gratitude))
	if agg.Trends.Resistance == "up" {
		b.WriteString(" Resistance climbed as the week went on, which is worth noticing without judging.")
	} else {
		b.WriteString(" " + trendSentence("resistance", agg.Trends.Resistance))
	}
	if len(agg.TopTags) > 0 {
		fmt.Fprintf(&b, " A recurring theme was %s.", strings.ReplaceAll(agg.TopTags[0], "_", " "))
	}

	return &WeeklyResult{
		SummaryText:         b.String(),
		ReflectionQuestion:  reflectionFor(agg.Trends),
		DominantWeekEmotion: emotion,
	}, nil
}

func trendSentence(dim, trend string) string {
	switch trend {
	case "up":
		return "Your " + dim + " trended upward across the week."
	case "down":
		return "Your " + dim + " softened as the week progressed."
	default:
		return "Your " + dim + " held steady."
	}
}

func reflectionFor(t TrendSet) string {
	switch {
	case t.Resistance == "up":
		return "What felt heaviest this week, and what would make it lighter?"
	case t.Confidence == "up":
		return "What helped your confidence build, and how could you repeat it?"
	case t.Gratitude == "up":
		return "What are you most grateful for from this week?"
	case t.Clarity == "down":
		return "Where did things get foggy, and what would bring them back into focus?"
	default:
		return "Which moment from this week would you like more of?"
	}
}

// normalizeDaily enforces the output contract regardless of which engine
// produced the result: scores clamped, enums coerced to allowed values,
// tags filtered to the taxonomy and bounded to 1-4, alignment derived.
func normalizeDaily(res *DailyResult) {
	res.ConfidenceScore = ClampScore(res.ConfidenceScore)
	res.AbundanceScore = ClampScore(res.AbundanceScore)
	res.ClarityScore = ClampScore(res.ClarityScore)
	res.GratitudeScore = ClampScore(res.GratitudeScore)
	res.ResistanceScore = ClampScore(res.ResistanceScore)

	if res.DominantEmotion == "" {
		res.DominantEmotion = "Reflective"
	}
	if !contains(AllowedTones, strings.ToLower(res.OverallTone)) {
		res.OverallTone = "calm"
	} else {
		res.OverallTone = strings.ToLower(res.OverallTone)
	}
	if !contains(AllowedTimeHorizons, strings.ToLower(res.TimeHorizon)) {
		res.TimeHorizon = "vague"
	} else {
		res.TimeHorizon = strings.ToLower(res.TimeHorizon)
	}

	var tags []string
	for _, tag := range res.BehavioralTags {
		if contains(AllowedBehavioralTags, tag) {
			tags = append(tags, tag)
		}
	}
	if len(tags) > 4 {
		tags = tags[:4]
	}
	if len(tags) == 0 {
		tags = []string{"contemplative"}
	}
	res.BehavioralTags = tags

	res.AlignmentScore = AlignmentScore(
		res.ConfidenceScore, res.AbundanceScore, res.ClarityScore,
		res.GratitudeScore, res.ResistanceScore)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
