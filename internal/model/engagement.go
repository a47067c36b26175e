package model

// PromptState is the per-installation throttle record for the mood-check-in
// prompt. It is persisted as a single value so the two fields can never be
// observed out of sync (the backing KV store is not transactional across
// keys).
type PromptState struct {
	// LastPromptDate is the calendar date ("2006-01-02") of the last shown
	// prompt, in the installation's local time.
	LastPromptDate string `json:"last_prompt_date"`
	// PromptsShownToday counts prompts shown on LastPromptDate. The reset on
	// day rollover is applied lazily by readers, not by a midnight write.
	PromptsShownToday int `json:"prompts_shown_today"`
}
