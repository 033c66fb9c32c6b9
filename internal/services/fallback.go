package services

import (
	"encoding/json"
	"fmt"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// Canned results returned when model output cannot be used. The values are a
// fixed contract consumed by the mobile client.

var analyzeFallback = models.ATSAnalysis{
	ATSScore: 65,
	Sections: models.Sections{
		Skills: models.SectionAnalysis{
			Present:     true,
			Score:       70,
			Issues:      []string{"Could use more specific technical skills"},
			Suggestions: []string{"Add measurable skills"},
		},
		Experience: models.SectionAnalysis{
			Present:     true,
			Score:       65,
			Issues:      []string{"Bullet points could be more impactful"},
			Suggestions: []string{"Use action verbs"},
		},
		Education: models.SectionAnalysis{
			Present:     true,
			Score:       80,
			Issues:      []string{},
			Suggestions: []string{},
		},
		Keywords: models.SectionAnalysis{
			Present:     true,
			Score:       60,
			Issues:      []string{"Missing industry keywords"},
			Suggestions: []string{"Add relevant keywords"},
		},
		Formatting: models.SectionAnalysis{
			Present:     true,
			Score:       70,
			Issues:      []string{"Consider simpler formatting"},
			Suggestions: []string{"Use standard fonts"},
		},
	},
	MissingItems: []string{"Contact information could be more prominent", "Summary section recommended"},
	Suggestions:  []string{"Add more quantifiable achievements", "Include relevant certifications"},
}

var matchFallback = models.JDMatchResult{
	MatchPercentage: 60,
	MatchedSkills:   []string{"Communication", "Problem Solving", "Team Collaboration"},
	MissingSkills:   []string{"Specific technical skill from JD"},
	KeywordGaps:     []string{"Industry-specific terminology"},
	Recommendations: []string{"Tailor your resume to include keywords from the job description"},
}

var improveFallback = models.ImprovedResume{
	OriginalPoints: []string{
		"Worked on various projects",
		"Helped team achieve goals",
		"Managed daily tasks",
	},
	ImprovedPoints: []string{
		"Led development of 5+ cross-functional projects, delivering results 20% ahead of schedule",
		"Collaborated with 12-person team to exceed quarterly targets by 15%",
		"Streamlined operational workflows, reducing task completion time by 30%",
	},
	Summary:       "Enhanced bullet points with action verbs, quantifiable metrics, and specific achievements while maintaining accuracy.",
	DownloadReady: true,
}

var interviewFallback = models.InterviewQuestions{
	Questions: []models.InterviewQuestion{
		{Category: models.CategoryHR, Question: "Tell me about yourself and your career journey.", Hint: "Focus on relevant experience and career highlights"},
		{Category: models.CategoryHR, Question: "Why are you interested in this position?", Hint: "Connect your skills to the job requirements"},
		{Category: models.CategoryHR, Question: "What are your greatest strengths?", Hint: "Provide specific examples from your experience"},
		{Category: models.CategoryTechnical, Question: "Describe your experience with the tools mentioned in your resume.", Hint: "Be specific about projects and outcomes"},
		{Category: models.CategoryTechnical, Question: "How do you stay updated with industry trends?", Hint: "Mention courses, certifications, or communities"},
		{Category: models.CategoryTechnical, Question: "Walk me through a challenging technical problem you solved.", Hint: "Use the STAR method"},
		{Category: models.CategorySituational, Question: "Describe a time you had to work under pressure.", Hint: "Focus on the outcome and what you learned"},
		{Category: models.CategorySituational, Question: "Tell me about a conflict with a coworker and how you resolved it.", Hint: "Emphasize communication and collaboration"},
		{Category: models.CategorySituational, Question: "Give an example of when you had to learn something quickly.", Hint: "Show adaptability and growth mindset"},
	},
}

// generatedAt is left empty so the assembler stamps the response time.
var coverLetterFallback = models.CoverLetter{
	Content: `Dear Hiring Manager,

I am writing to express my strong interest in the position advertised. With my background and skills, I am confident I would be a valuable addition to your team.

Throughout my career, I have developed expertise in areas directly relevant to this role. I am passionate about delivering high-quality work and contributing to team success.

I am excited about the opportunity to bring my experience to your organization and would welcome the chance to discuss how I can contribute to your team's goals.

Thank you for considering my application. I look forward to the opportunity to speak with you.

Best regards`,
}

// FallbackFor returns a fresh copy of the canned result for a task.
func FallbackFor(task models.AnalysisTask) (map[string]any, error) {
	var canned any
	switch task {
	case models.TaskAnalyze:
		canned = analyzeFallback
	case models.TaskMatchJobDescription:
		canned = matchFallback
	case models.TaskImprove:
		canned = improveFallback
	case models.TaskInterviewQuestions:
		canned = interviewFallback
	case models.TaskCoverLetter:
		canned = coverLetterFallback
	default:
		return nil, fmt.Errorf("%w: %q", ErrTaskUnknown, task)
	}

	return toMap(canned)
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}
