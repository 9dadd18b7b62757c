// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SYSTEM PROMPTS
// =============================================================================

// NoPromptID is the reserved id of the built-in empty prompt. It cannot
// be deleted or edited, and selecting it sends no system instruction.
const NoPromptID = "none"

// SystemPrompt is a named system instruction selectable per conversation.
type SystemPrompt struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// IsReserved returns true for the built-in "none" prompt.
func (p SystemPrompt) IsReserved() bool {
	return p.ID == NoPromptID
}

// DefaultSystemPrompts returns the built-in prompt set. The slice is a
// fresh copy on every call so callers may append to it freely.
func DefaultSystemPrompts() []SystemPrompt {
	return []SystemPrompt{
		{
			ID:     NoPromptID,
			Title:  "None",
			Prompt: "",
		},
		{
			ID:     "general",
			Title:  "General Assistant",
			Prompt: "You are a helpful, friendly, and knowledgeable AI assistant. Provide clear, accurate, and concise answers to user questions.",
		},
		{
			ID:     "code",
			Title:  "Code Generation",
			Prompt: "You are an expert software engineer. Provide clean, well-documented, and efficient code. Follow best practices and explain your reasoning when helpful.",
		},
		{
			ID:     "financial",
			Title:  "Financial Model Evaluation",
			Prompt: "You are a financial analyst with expertise in evaluating business models, analyzing financial statements, and providing investment insights. Be thorough, data-driven, and objective in your analysis.",
		},
		{
			ID:     "creative",
			Title:  "Creative Writing",
			Prompt: "You are a creative writer with a flair for storytelling. Help users with creative writing, brainstorming ideas, and crafting engaging narratives.",
		},
		{
			ID:     "technical",
			Title:  "Technical Documentation",
			Prompt: "You are a technical writer specializing in clear, comprehensive documentation. Write precise, well-structured technical documentation that is easy to understand.",
		},
	}
}

// FindPrompt returns the prompt with the given id, or the reserved empty
// prompt when the id is unknown.
func FindPrompt(prompts []SystemPrompt, id string) SystemPrompt {
	for _, p := range prompts {
		if p.ID == id {
			return p
		}
	}
	return SystemPrompt{ID: NoPromptID, Title: "None"}
}
