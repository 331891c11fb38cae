package pipeline

import (
	"fmt"
	"strings"

	"groundwork/internal/types"
)

// Prompt builders for the stage LLM calls. Each returns a system prompt
// and a user prompt; the JSON shape the stage expects is spelled out in
// the system prompt so parse failures stay rare.

const analysisSystemPrompt = `You are the self-analysis component of a project-intake assistant.
Given the current project record and recent conversation, classify the conversational context.
Respond with ONLY a JSON object, no prose:
{
  "projectType": "<short label, e.g. website, mobile_app, general>",
  "complexity": "low|medium|high",
  "urgency": "low|medium|high",
  "userEngagement": "low|medium|high",
  "keyThemes": ["<theme>", ...],
  "progressIndicators": ["<indicator>", ...]
}`

func buildAnalysisPrompt(project *types.ProjectRecord, turns []types.ChatTurn) string {
	var b strings.Builder
	b.WriteString("Project record:\n")
	writeProjectSummary(&b, project)
	b.WriteString("\nRecent conversation:\n")
	writeTranscript(&b, turns)
	b.WriteString("\nClassify the conversational context as JSON.")
	return b.String()
}

const gapsSystemPrompt = `You are the gap-detection component of a project-intake assistant.
Given the project record, its missing fields, and the current knowledge summary, assess each missing field.
Respond with ONLY a JSON object, no prose:
{
  "gaps": [
    {
      "field": "<missing field name>",
      "criticality": "critical|high|medium|low",
      "impact": "blocks_everything|blocks_planning|blocks_execution|minor_impact",
      "dependencies": ["<field this gap depends on>", ...],
      "reasoning": "<one sentence>"
    }
  ],
  "prioritizedOrder": ["<field>", "..."],
  "nextAction": {
    "action": "ask_about_<field>",
    "question": "<the exact question to ask the user>",
    "reasoning": "<one sentence>"
  }
}
Include every missing field exactly once in both gaps and prioritizedOrder.`

func buildGapsPrompt(project *types.ProjectRecord, knowledge *types.KnowledgeRecord, missing []string) string {
	var b strings.Builder
	b.WriteString("Project record:\n")
	writeProjectSummary(&b, project)
	fmt.Fprintf(&b, "\nMissing fields: %s\n", strings.Join(missing, ", "))
	fmt.Fprintf(&b, "Knowledge confidence: %.2f, completeness: %.2f\n", knowledge.Confidence, knowledge.Completeness)
	if len(knowledge.Uncertainties) > 0 {
		fmt.Fprintf(&b, "Uncertainties: %s\n", strings.Join(knowledge.Uncertainties, "; "))
	}
	b.WriteString("\nAssess the gaps as JSON.")
	return b.String()
}

const planningSystemPrompt = `You are the action-planning component of a project-intake assistant.
Choose the single best next conversational move given the open gaps, what is known, the conversation context, and the user's learned preferences.
Respond with ONLY a JSON object, no prose:
{
  "action": "ask_about_<field>",
  "question": "<the exact question to ask, phrased for this user>",
  "reasoning": "<one sentence>",
  "timing": "immediate|delayed",
  "confidence": <0..1>,
  "alternativeActions": ["<action>", ...],
  "expectedResponse": "<what kind of answer you expect>"
}`

func buildPlanningPrompt(gaps *types.GapRecord, knowledge *types.KnowledgeRecord, cctx conversationContext, learning *types.LearningRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Open gaps (most critical first): %s\n", strings.Join(gaps.CriticalGaps, ", "))
	fmt.Fprintf(&b, "Recommended next action: %s\n", gaps.NextAction.Action)
	fmt.Fprintf(&b, "Knowledge confidence: %.2f\n", knowledge.Confidence)
	fmt.Fprintf(&b, "Conversation stage: %s, engagement: %s, response pattern: %s\n",
		cctx.Stage, cctx.UserEngagement, cctx.ResponsePattern)
	fmt.Fprintf(&b, "User preferences: question style %s, engagement %s, response time %s\n",
		learning.UserPatterns.PreferredQuestionStyle,
		learning.UserPatterns.EngagementLevel,
		learning.UserPatterns.ResponseTime)
	b.WriteString("\nChoose the next action as JSON.")
	return b.String()
}

const executionSystemPromptTemplate = `You are a project-intake assistant talking with a user about their project.
From the user's message, extract any project attributes and draft a reply.
Keep the reply %s, at most %d words. If anything useful is still missing, end the reply with the planned question.
Respond with ONLY a JSON object, no prose:
{
  "extractedInfo": {
    "confidence": <0..1>,
    "extractedFields": {
      "scope": "<string or omit>",
      "timeline": "<string or omit>",
      "budget": "<string or omit>",
      "deliverables": ["<item>", ...],
      "dependencies": ["<item>", ...]
    },
    "extractionQuality": "high|medium|low",
    "needsClarification": <bool>
  },
  "responseMessage": "<the reply to send to the user>"
}`

func buildExecutionSystemPrompt(v verbosity) string {
	return fmt.Sprintf(executionSystemPromptTemplate, v.Tone, v.WordBudget)
}

func buildExecutionPrompt(userMessage string, plan *types.ActionPlan, project *types.ProjectRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User message: %s\n", userMessage)
	b.WriteString("\nCurrent project record:\n")
	writeProjectSummary(&b, project)
	if plan != nil {
		fmt.Fprintf(&b, "\nPlanned next question: %s\n", plan.Question)
	}
	b.WriteString("\nExtract fields and draft the reply as JSON.")
	return b.String()
}

const interactionSystemPrompt = `You are the learning component of a project-intake assistant.
Classify the user's just-completed reply along eight axes.
Respond with ONLY a JSON object, no prose:
{
  "responseQuality": "high|medium|low",
  "engagementLevel": "high|medium|low",
  "communicationStyle": "detailed|balanced|concise",
  "preferredQuestionType": "direct|exploratory|detailed",
  "responseTime": "avg_30_minutes|avg_1_hour|avg_2_hours",
  "informationDensity": "high|medium|low",
  "clarityLevel": "clear|unclear",
  "cooperationLevel": "high|medium|low"
}`

func buildInteractionPrompt(userMessage string, plan *types.ActionPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User reply: %s\n", userMessage)
	if plan != nil {
		fmt.Fprintf(&b, "It answered the question: %s\n", plan.Question)
	}
	b.WriteString("\nClassify the interaction as JSON.")
	return b.String()
}

const insightsSystemPrompt = `You are the learning component of a project-intake assistant.
Summarize what this interaction revealed about the user and how the assistant could improve.
Respond with ONLY a JSON object, no prose:
{
  "userProfile": "<one or two sentences about the user>",
  "improvementSuggestions": ["<suggestion>", ...]
}`

func buildInsightsPrompt(userMessage string, analysis interactionAnalysis, learning *types.LearningRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User reply: %s\n", userMessage)
	fmt.Fprintf(&b, "Interaction read: quality=%s engagement=%s style=%s density=%s\n",
		analysis.ResponseQuality, analysis.EngagementLevel, analysis.CommunicationStyle, analysis.InformationDensity)
	fmt.Fprintf(&b, "Current profile: style=%s engagement=%s response_time=%s\n",
		learning.UserPatterns.PreferredQuestionStyle,
		learning.UserPatterns.EngagementLevel,
		learning.UserPatterns.ResponseTime)
	b.WriteString("\nSummarize as JSON.")
	return b.String()
}

func writeProjectSummary(b *strings.Builder, project *types.ProjectRecord) {
	for _, field := range types.AllFields {
		value := project.FieldValue(field)
		if strings.TrimSpace(value) == "" {
			value = "(not set)"
		}
		fmt.Fprintf(b, "- %s: %s\n", field, value)
	}
}

func writeTranscript(b *strings.Builder, turns []types.ChatTurn) {
	if len(turns) == 0 {
		b.WriteString("(no conversation yet)\n")
		return
	}
	for _, t := range turns {
		fmt.Fprintf(b, "%s: %s\n", t.Role, t.Message)
	}
}
