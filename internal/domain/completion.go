package domain

// CompletionThreshold is the completion score at or above which a talent
// profile counts as complete and may submit applications.
const CompletionThreshold = 70

// TalentProfile is the field-presence snapshot the completion score is
// recomputed from. It is supplied by the profile subsystem; the engine never
// stores profile content, only the resulting score.
type TalentProfile struct {
	HasPhoto           bool
	FullName           string
	EmailVerified      bool
	Phone              string
	Bio                string
	PrimaryRole        string
	SkillCount         int
	ExperienceCount    int
	PortfolioItemCount int
}

type completionField struct {
	name   string
	weight int
	// optional fields contribute to the score but are not reported as
	// missing when absent.
	optional bool
	present  func(TalentProfile) bool
}

// completionWeights is the fixed weight table. The six required fields sum to
// exactly 70, so a profile with all of them lands on the threshold; the
// optional fields push the score toward 100.
var completionWeights = []completionField{
	{name: "photo", weight: 15, present: func(p TalentProfile) bool { return p.HasPhoto }},
	{name: "full_name", weight: 10, present: func(p TalentProfile) bool { return p.FullName != "" }},
	{name: "email_verified", weight: 10, present: func(p TalentProfile) bool { return p.EmailVerified }},
	{name: "phone", weight: 5, optional: true, present: func(p TalentProfile) bool { return p.Phone != "" }},
	{name: "bio", weight: 15, present: func(p TalentProfile) bool { return p.Bio != "" }},
	{name: "primary_role", weight: 10, present: func(p TalentProfile) bool { return p.PrimaryRole != "" }},
	{name: "skills", weight: 10, present: func(p TalentProfile) bool { return p.SkillCount > 0 }},
	{name: "experience", weight: 10, optional: true, present: func(p TalentProfile) bool { return p.ExperienceCount > 0 }},
	{name: "portfolio", weight: 15, optional: true, present: func(p TalentProfile) bool { return p.PortfolioItemCount > 0 }},
}

type CompletionResult struct {
	Score    int
	Complete bool
	Missing  []string
}

// ComputeCompletion recomputes the talent completion score from profile field
// presence. This is a full recomputation, not an accrual: the same profile
// always yields the same score.
func ComputeCompletion(profile TalentProfile) CompletionResult {
	score := 0
	missing := make([]string, 0)
	for _, f := range completionWeights {
		if f.present(profile) {
			score += f.weight
			continue
		}
		if !f.optional {
			missing = append(missing, f.name)
		}
	}
	score = ClampScore(score)
	return CompletionResult{
		Score:    score,
		Complete: score >= CompletionThreshold,
		Missing:  missing,
	}
}
