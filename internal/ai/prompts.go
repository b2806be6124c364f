package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	RewriteResume   string
	ExtractKeywords string
	PreviewResume   string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	RewriteResume   string
	ExtractKeywords string
	PreviewResume   string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	RewriteResume: `You are an expert resume writer and career coach with a strict commitment to honesty and accuracy. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills or experiences
- Every piece of information must be directly traceable to the source resume
- Maintain professional integrity while optimizing for relevance
- Preserve the markdown structure of the source resume

Your expertise includes:
- Aligning resume language with job description terminology
- Surfacing relevant experience that matches the target role
- Keyword optimization for semantic similarity and ATS matching`,

	ExtractKeywords: `You are an expert recruitment analyst specialized in structured information extraction. Your role is to:

- Identify the skills, technologies, qualifications and responsibilities that define a document
- Normalize terminology (e.g. "k8s" becomes "Kubernetes")
- Return only information actually present in the document
- Produce concise, deduplicated keyword lists

You never pad results with generic filler terms.`,

	PreviewResume: `You are a precise document parser. Your role is to convert a markdown resume into a fixed structured representation:

- Extract only what the document states, never infer missing fields
- Keep bullet points as separate description entries
- Leave optional fields empty when the document does not provide them`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	RewriteResume: `Rewrite the resume below so it aligns more closely with the target job while staying completely truthful to the original content.

The previous version of this resume scored %.4f on semantic similarity against the job requirements. Your goal is to produce a version that scores strictly higher.

Guidelines:
- Mirror the job description's terminology where the resume already demonstrates the skill
- Emphasize the experience most relevant to the job requirements
- Weave in the job keywords naturally, but only where the underlying experience exists
- Keep the resume in markdown and preserve its overall structure

**Target Job Description:**
-----
%s
-----

**Job Keywords:**
%s

**Current Resume (best version so far):**
-----
%s
-----

**Resume Keywords:**
%s`,

	ExtractKeywords: `Extract the defining keywords from the %s below. Focus on concrete skills, technologies, tools, certifications, qualifications and core responsibilities.

Return between 5 and 40 keywords. Each keyword should be a short noun phrase, deduplicated and normalized.

**Document:**
-----
%s
-----`,

	PreviewResume: `Parse the following markdown resume into the structured format defined by the response schema. Extract personal data, summary, experiences, projects, skills and education exactly as stated.

**Resume:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
