package models

// AnalysisTask selects the prompt template and the expected output shape.
type AnalysisTask string

const (
	TaskAnalyze             AnalysisTask = "analyze"
	TaskMatchJobDescription AnalysisTask = "match-jd"
	TaskImprove             AnalysisTask = "improve"
	TaskInterviewQuestions  AnalysisTask = "interview-questions"
	TaskCoverLetter         AnalysisTask = "cover-letter"
)

// AllTasks lists every task in endpoint order.
var AllTasks = []AnalysisTask{
	TaskAnalyze,
	TaskMatchJobDescription,
	TaskImprove,
	TaskInterviewQuestions,
	TaskCoverLetter,
}

func (t AnalysisTask) Valid() bool {
	for _, known := range AllTasks {
		if t == known {
			return true
		}
	}
	return false
}

func (t AnalysisTask) String() string {
	return string(t)
}
