package models

// SectionAnalysis scores one résumé section.
type SectionAnalysis struct {
	Present     bool     `json:"present"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type Sections struct {
	Skills     SectionAnalysis `json:"skills"`
	Experience SectionAnalysis `json:"experience"`
	Education  SectionAnalysis `json:"education"`
	Keywords   SectionAnalysis `json:"keywords"`
	Formatting SectionAnalysis `json:"formatting"`
}

// ATSAnalysis is the structured result of the analyze task.
type ATSAnalysis struct {
	ATSScore     int      `json:"atsScore"`
	Sections     Sections `json:"sections"`
	MissingItems []string `json:"missingItems"`
	Suggestions  []string `json:"suggestions"`
}

type JDMatchResult struct {
	MatchPercentage int      `json:"matchPercentage"`
	MatchedSkills   []string `json:"matchedSkills"`
	MissingSkills   []string `json:"missingSkills"`
	KeywordGaps     []string `json:"keywordGaps"`
	Recommendations []string `json:"recommendations"`
}

type ImprovedResume struct {
	OriginalPoints []string `json:"originalPoints"`
	ImprovedPoints []string `json:"improvedPoints"`
	Summary        string   `json:"summary"`
	DownloadReady  bool     `json:"downloadReady"`
}

type QuestionCategory string

const (
	CategoryHR          QuestionCategory = "hr"
	CategoryTechnical   QuestionCategory = "technical"
	CategorySituational QuestionCategory = "situational"
)

var QuestionCategories = []QuestionCategory{CategoryHR, CategoryTechnical, CategorySituational}

type InterviewQuestion struct {
	Category QuestionCategory `json:"category"`
	Question string           `json:"question"`
	Hint     string           `json:"hint,omitempty"`
}

type InterviewQuestions struct {
	Questions []InterviewQuestion `json:"questions"`
}

// CoverLetter leaves GeneratedAt empty when the model did not supply one;
// the assembler stamps it.
type CoverLetter struct {
	Content     string `json:"content"`
	GeneratedAt string `json:"generatedAt,omitempty"`
}
