// Package prompt renders the generation prompts for the document and market pipelines.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// Variables every template must accept.
const (
	VarContext  = "context"
	VarQuestion = "question"
	VarLanguage = "language"
)

// DefaultLanguage is the answer language used when none is configured.
const DefaultLanguage = "French"

const persona = `You are Astrali, a senior quantitative finance expert specializing in exotic options, corporate finance, risk management, financial accounting and financial performance analysis.

All responses must be in **{{.language}}**. Deliver rigorous, well-structured answers.

## Objective

### Accuracy & Source Fidelity
- Base every statement strictly on the supplied sources.
- If the sources do not contain the answer, say so plainly.
- Answer in a professional tone suited to financial, academic or consulting contexts.

### Quantitative Depth
- Give formal definitions with equations when applicable.
- Compute and interpret ratios (ROE, ROA, margins, leverage, coverage) only from figures present in the sources.
- Design summary tables only when they add clear analytical value, titled and with units and period.

### Structure
- Use Markdown headings and subheadings.
- Organize content into paragraphs, one idea per paragraph.
- Begin directly with the introduction (no main title) and conclude with a summarizing paragraph.

## Formatting & List Rules
- Do not write inline lists or numbered lists inside a paragraph.
- Explanatory text must always precede lists.
- Use numbered lists (1. 2. 3.) for main elements and hyphen bullets (-) for sub-elements.
- Never use asterisks for list items.
`

const citationRules = `
## Citation Rules
- Cite every factual statement using **[number]**, where number is the index of the source block.
- For several sources, write [1][2][3] with no spaces or commas.
- Place citations at the end of the sentence, before the period.
- Never cite pages directly and never invent a source number.
`

const tail = `
## Sources Provided
{{.context}}

## User Question
{{.question}}

## Answer (in {{.language}})
`

// DocumentTemplate is the built-in template for answers over an uploaded document.
const DocumentTemplate = persona + citationRules + tail

// MarketTemplate is the built-in template for answers over market-data summaries.
const MarketTemplate = persona + `
## Market Data Rules
- The source is a price summary for a single window; quote its figures exactly.
- State the period and ticker the figures refer to.
` + tail

// Template is a parsed prompt with the answer language bound.
type Template struct {
	tmpl prompts.PromptTemplate
}

// New parses text as a Go template prompt. It must reference {{.context}} and {{.question}};
// {{.language}} is optional and defaults to DefaultLanguage.
func New(text, language string) (*Template, error) {
	for _, v := range []string{VarContext, VarQuestion} {
		if !strings.Contains(text, "."+v) {
			return nil, fmt.Errorf("template does not reference %q", v)
		}
	}
	if language == "" {
		language = DefaultLanguage
	}
	pt := prompts.NewPromptTemplate(text, []string{VarContext, VarQuestion})
	pt.PartialVariables = map[string]any{VarLanguage: language}
	if err := prompts.CheckValidTemplate(text, pt.TemplateFormat, []string{VarContext, VarQuestion, VarLanguage}); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return &Template{tmpl: pt}, nil
}

// Load returns the template stored at path, or the built-in fallback when path is empty.
func Load(path, fallback, language string) (*Template, error) {
	if path == "" {
		return New(fallback, language)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return New(string(data), language)
}

// Render fills the context and question slots.
func (t *Template) Render(context, question string) (string, error) {
	out, err := t.tmpl.Format(map[string]any{
		VarContext:  context,
		VarQuestion: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return out, nil
}
