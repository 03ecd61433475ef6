// File: internal/services/bot/knowledge.go
package bot

import (
	"context"
	"fmt"
	"strings"
)

// Translator localizes replies into the requesting user's language.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Snippet is one retrieved agronomy passage used to ground LLM answers.
type Snippet struct {
	Title string
	Text  string
}

// Retriever finds agronomy passages relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// Completer generates a free-form answer from a system prompt and question.
type Completer interface {
	GetCompletion(ctx context.Context, systemPrompt, prompt string) (string, error)
}

const advisorSystemPrompt = `You are AgriSaarthi, an agricultural assistant for Indian farmers. Answer briefly and practically. Base your answer on the provided reference passages when they are relevant; otherwise answer from general agronomy knowledge.`

const generalAdvice = "I'm here to help with your farming questions! Ask me about crops, pests, diseases, weather, or any agricultural concerns."

// KnowledgeResponder answers from a keyword knowledge base, escalating
// unmatched questions to retrieval-grounded LLM completion when those
// collaborators are wired. Translator and the LLM pieces are optional.
type KnowledgeResponder struct {
	translator Translator
	retriever  Retriever
	completer  Completer
	logger     Logger

	knowledgeBase map[string]map[string]string
}

func NewKnowledgeResponder(translator Translator, retriever Retriever, completer Completer, logger Logger) *KnowledgeResponder {
	return &KnowledgeResponder{
		translator:    translator,
		retriever:     retriever,
		completer:     completer,
		logger:        logger,
		knowledgeBase: defaultKnowledgeBase(),
	}
}

func defaultKnowledgeBase() map[string]map[string]string {
	return map[string]map[string]string{
		"crops": {
			"rice":      "Rice is a staple crop. Plant in well-drained soil with good water retention. Requires 150-200mm water per week during growing season.",
			"wheat":     "Wheat grows best in cool, dry climates. Plant in fall for spring harvest. Requires 25-30 inches of water per season.",
			"corn":      "Corn needs warm weather and plenty of water. Plant after last frost. Requires 1-1.5 inches of water per week.",
			"sugarcane": "Sugarcane needs tropical climate with high rainfall. Plant in well-drained soil. Requires 1500-2000mm annual rainfall.",
		},
		"pests": {
			"aphids":       "Aphids can be controlled with neem oil spray or insecticidal soap. Check undersides of leaves regularly.",
			"caterpillars": "Use Bacillus thuringiensis (Bt) spray for caterpillar control. Apply in early morning or evening.",
			"whiteflies":   "Yellow sticky traps and neem oil can help control whiteflies. Ensure good air circulation.",
		},
		"diseases": {
			"blight": "Blight appears as dark spots on leaves. Remove affected plants and avoid overhead watering.",
			"rust":   "Rust shows as orange/brown spots. Use fungicide spray and ensure good air circulation.",
			"mosaic": "Mosaic virus causes mottled leaves. Remove infected plants immediately to prevent spread.",
		},
		"weather": {
			"drought": "During drought, use drip irrigation and mulch to conserve water. Consider drought-resistant crop varieties.",
			"flood":   "In case of flooding, ensure proper drainage. Avoid planting in low-lying areas during monsoon.",
			"frost":   "Protect crops from frost using row covers or greenhouses. Plant frost-sensitive crops after last frost date.",
		},
	}
}

func (r *KnowledgeResponder) Reply(ctx context.Context, req Request) (string, error) {
	response := r.lookupKeyword(req.Content)
	if response == "" {
		response = r.generate(ctx, req.Content)
	}
	if response == "" {
		response = generalAdvice
	}
	return r.localize(ctx, response, req.Language), nil
}

// lookupKeyword scans categories in a fixed order so crop matches win over
// weather matches in mixed questions.
func (r *KnowledgeResponder) lookupKeyword(content string) string {
	lower := strings.ToLower(content)

	for crop, info := range r.knowledgeBase["crops"] {
		if strings.Contains(lower, crop) {
			return fmt.Sprintf("About %s: %s", titleCase(crop), info)
		}
	}
	for pest, info := range r.knowledgeBase["pests"] {
		if strings.Contains(lower, pest) {
			return fmt.Sprintf("Regarding %s: %s", titleCase(pest), info)
		}
	}
	for disease, info := range r.knowledgeBase["diseases"] {
		if strings.Contains(lower, disease) {
			return fmt.Sprintf("About %s: %s", titleCase(disease), info)
		}
	}
	for condition, info := range r.knowledgeBase["weather"] {
		if strings.Contains(lower, condition) {
			return fmt.Sprintf("Weather advice for %s: %s", titleCase(condition), info)
		}
	}
	return ""
}

// generate answers unmatched questions with the LLM, grounded on retrieved
// passages when a retriever is wired. Returns "" when generation is not
// available or fails.
func (r *KnowledgeResponder) generate(ctx context.Context, content string) string {
	if r.completer == nil {
		return ""
	}

	prompt := content
	if r.retriever != nil {
		snippets, err := r.retriever.Search(ctx, content, 3)
		if err != nil {
			r.logger.Warn("Knowledge retrieval failed, answering without references", "error", err)
		} else if len(snippets) > 0 {
			var b strings.Builder
			b.WriteString("Reference passages:\n")
			for _, s := range snippets {
				fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.Text)
			}
			b.WriteString("\nQuestion: ")
			b.WriteString(content)
			prompt = b.String()
		}
	}

	answer, err := r.completer.GetCompletion(ctx, advisorSystemPrompt, prompt)
	if err != nil {
		r.logger.Warn("LLM completion failed, falling back to general advice", "error", err)
		return ""
	}
	return strings.TrimSpace(answer)
}

func (r *KnowledgeResponder) localize(ctx context.Context, response, language string) string {
	if r.translator == nil || language == "" || language == "en" {
		return response
	}
	translated, err := r.translator.Translate(ctx, response, "en", language)
	if err != nil || translated == "" {
		return response
	}
	return translated
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
