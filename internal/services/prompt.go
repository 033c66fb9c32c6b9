package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

var ErrTaskUnknown = errors.New("unknown analysis task")

// PromptPayload is the instruction/content pair sent to the model.
type PromptPayload struct {
	SystemInstruction string
	UserContent       string
}

// PromptInput carries the caller-supplied text for a task. Empty optional
// fields drop their section from the prompt.
type PromptInput struct {
	ResumeContent  string
	JobDescription string
	Suggestions    []string
	Guidance       string
}

const analyzeInstruction = `You are an expert ATS (Applicant Tracking System) resume analyzer. Analyze the provided resume and return a detailed JSON analysis. Be constructive and helpful in your feedback.

Return ONLY valid JSON in this exact format:
{
  "atsScore": <number 0-100>,
  "sections": {
    "skills": { "present": <boolean>, "score": <number 0-100>, "issues": [<string>], "suggestions": [<string>] },
    "experience": { "present": <boolean>, "score": <number 0-100>, "issues": [<string>], "suggestions": [<string>] },
    "education": { "present": <boolean>, "score": <number 0-100>, "issues": [<string>], "suggestions": [<string>] },
    "keywords": { "present": <boolean>, "score": <number 0-100>, "issues": [<string>], "suggestions": [<string>] },
    "formatting": { "present": <boolean>, "score": <number 0-100>, "issues": [<string>], "suggestions": [<string>] }
  },
  "missingItems": [<string>],
  "suggestions": [<string>]
}`

const matchInstruction = `You are an expert job matching specialist. Compare the resume with the job description and provide a detailed match analysis. Be helpful and constructive.

Return ONLY valid JSON in this exact format:
{
  "matchPercentage": <number 0-100>,
  "matchedSkills": [<string>],
  "missingSkills": [<string>],
  "keywordGaps": [<string>],
  "recommendations": [<string>]
}`

const improveInstruction = `You are an expert resume writer. Improve the resume bullet points to be more ATS-friendly while keeping all information accurate and honest. Use action verbs and quantify achievements where possible.

Return ONLY valid JSON in this exact format:
{
  "originalPoints": [<string>],
  "improvedPoints": [<string>],
  "summary": "<string describing improvements made>",
  "downloadReady": true
}

Select 3-5 key bullet points from the resume to improve. improvedPoints must have the same length and order as originalPoints.`

const interviewInstruction = `You are an expert interview coach. Generate personalized interview questions based on the resume and job description. Include HR, technical, and situational questions.

Return ONLY valid JSON in this exact format:
{
  "questions": [
    { "category": "hr", "question": "<string>", "hint": "<string optional tip>" },
    { "category": "technical", "question": "<string>", "hint": "<string optional tip>" },
    { "category": "situational", "question": "<string>", "hint": "<string optional tip>" }
  ]
}

Generate at least 3 questions per category (9+ total questions).`

const coverLetterInstruction = `You are an expert cover letter writer. Write a professional, personalized cover letter based on the resume and job description. The letter should:
- Be professional but personable
- Highlight relevant experience and skills
- Show enthusiasm for the role
- Be concise (3-4 paragraphs)
- Not include placeholder text like [Company Name] - use "your company" or similar if unknown

Return ONLY valid JSON in this exact format:
{
  "content": "<full cover letter text>",
  "generatedAt": "<ISO date string>"
}`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build creates the prompt for a task.
func (pb *PromptBuilder) Build(task models.AnalysisTask, in PromptInput) (PromptPayload, error) {
	switch task {
	case models.TaskAnalyze:
		return pb.BuildAnalyzePrompt(in), nil
	case models.TaskMatchJobDescription:
		return pb.BuildMatchPrompt(in), nil
	case models.TaskImprove:
		return pb.BuildImprovePrompt(in), nil
	case models.TaskInterviewQuestions:
		return pb.BuildInterviewPrompt(in), nil
	case models.TaskCoverLetter:
		return pb.BuildCoverLetterPrompt(in), nil
	default:
		return PromptPayload{}, fmt.Errorf("%w: %q", ErrTaskUnknown, task)
	}
}

// BuildAnalyzePrompt creates prompt for ATS analysis
func (pb *PromptBuilder) BuildAnalyzePrompt(in PromptInput) PromptPayload {
	var b strings.Builder
	b.WriteString("Analyze this resume for ATS compatibility:\n\n")
	b.WriteString(in.ResumeContent)
	writeGuidance(&b, in.Guidance)

	return PromptPayload{SystemInstruction: analyzeInstruction, UserContent: b.String()}
}

// BuildMatchPrompt creates prompt for job description matching
func (pb *PromptBuilder) BuildMatchPrompt(in PromptInput) PromptPayload {
	var b strings.Builder
	fmt.Fprintf(&b, "Resume:\n%s\n\nJob Description:\n%s", in.ResumeContent, in.JobDescription)
	writeGuidance(&b, in.Guidance)

	return PromptPayload{SystemInstruction: matchInstruction, UserContent: b.String()}
}

func (pb *PromptBuilder) BuildImprovePrompt(in PromptInput) PromptPayload {
	var b strings.Builder
	fmt.Fprintf(&b, "Resume to improve:\n%s", in.ResumeContent)
	if len(in.Suggestions) > 0 {
		encoded, _ := json.Marshal(in.Suggestions)
		fmt.Fprintf(&b, "\n\nPrevious suggestions: %s", encoded)
	}

	return PromptPayload{SystemInstruction: improveInstruction, UserContent: b.String()}
}

func (pb *PromptBuilder) BuildInterviewPrompt(in PromptInput) PromptPayload {
	var b strings.Builder
	fmt.Fprintf(&b, "Resume:\n%s", in.ResumeContent)
	if strings.TrimSpace(in.JobDescription) != "" {
		fmt.Fprintf(&b, "\n\nJob Description:\n%s", in.JobDescription)
	}

	return PromptPayload{SystemInstruction: interviewInstruction, UserContent: b.String()}
}

func (pb *PromptBuilder) BuildCoverLetterPrompt(in PromptInput) PromptPayload {
	var b strings.Builder
	if strings.TrimSpace(in.ResumeContent) != "" {
		fmt.Fprintf(&b, "Resume:\n%s\n\n", in.ResumeContent)
	}
	fmt.Fprintf(&b, "Job Description:\n%s", in.JobDescription)

	return PromptPayload{SystemInstruction: coverLetterInstruction, UserContent: b.String()}
}

func writeGuidance(b *strings.Builder, guidance string) {
	guidance = strings.TrimSpace(guidance)
	if guidance == "" {
		return
	}
	b.WriteString("\n\nReference ATS guidelines (use them to ground your feedback):\n")
	b.WriteString(guidance)
}

// FormatGuidance joins retrieved guideline chunks into one prompt section.
func FormatGuidance(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		text := strings.TrimSpace(result.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Guideline %d (Score: %.2f) ---\n%s", i+1, result.Score, text))
	}

	return strings.Join(parts, "\n\n")
}
