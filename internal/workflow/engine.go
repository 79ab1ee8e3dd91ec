package workflow

import (
	"time"

	"github.com/bahadkc/deger360/internal/database"
)

// TaskState is the completion state of one checklist task
type TaskState struct {
	TaskKey   string `json:"task_key"`
	Completed bool   `json:"completed"`
}

// StatesOf projects persisted checklist rows onto task states
func StatesOf(items []database.ChecklistItem) []TaskState {
	states := make([]TaskState, 0, len(items))
	for _, item := range items {
		states = append(states, TaskState{TaskKey: item.TaskKey, Completed: item.Completed})
	}
	return states
}

// IsSectionCompleted reports whether every task of the section has a state
// and every such state is completed. A task without a state is incomplete.
func IsSectionCompleted(section Section, items []TaskState) bool {
	for _, key := range section.TaskKeys {
		found := false
		for _, item := range items {
			if item.TaskKey != key {
				continue
			}
			found = true
			if !item.Completed {
				return false
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CurrentSection returns the first incomplete section in order, or the last
// section when all are complete. ok is false only for an empty section list.
func CurrentSection(sections []Section, items []TaskState) (section Section, ok bool) {
	if len(sections) == 0 {
		return Section{}, false
	}
	for _, s := range sections {
		if !IsSectionCompleted(s, items) {
			return s, true
		}
	}
	return sections[len(sections)-1], true
}

// DeriveBoardStage computes the board stage implied by the checklist. It
// has no memory of earlier stages, so un-completing a task can move the
// stage backward.
func DeriveBoardStage(items []TaskState) string {
	section, ok := CurrentSection(Sections, items)
	if !ok {
		return DefaultBoardStage
	}
	return section.BoardStage
}

// IsAllChecklistCompleted reports whether every configured item is completed
func IsAllChecklistCompleted(items []TaskState) bool {
	completed := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Completed {
			completed[item.TaskKey] = true
		}
	}
	for _, item := range Items {
		if !completed[item.Key] {
			return false
		}
	}
	return true
}

// IsCaseCompleted treats a case as done when it sits in the final stage or
// its whole checklist is completed
func IsCaseCompleted(boardStage string, items []TaskState) bool {
	if boardStage == StageTamamlandi {
		return true
	}
	return IsAllChecklistCompleted(items)
}

// MergeChecklist returns the full configured item set, using persisted rows
// where they exist and incomplete placeholders otherwise
func MergeChecklist(caseID string, persisted []database.ChecklistItem) []database.ChecklistItem {
	byKey := make(map[string]database.ChecklistItem, len(persisted))
	for _, item := range persisted {
		byKey[item.TaskKey] = item
	}

	merged := make([]database.ChecklistItem, 0, len(Items))
	for _, item := range Items {
		if existing, ok := byKey[item.Key]; ok {
			merged = append(merged, existing)
			continue
		}
		merged = append(merged, database.ChecklistItem{
			CaseID:  caseID,
			TaskKey: item.Key,
			Title:   item.Title,
		})
	}
	return merged
}

// CompletionUpdate builds the persisted fields for a task toggle
func CompletionUpdate(caseID, taskKey string, completed bool, actor string, now time.Time) database.ChecklistItem {
	item := database.ChecklistItem{
		CaseID:    caseID,
		TaskKey:   taskKey,
		Title:     TaskTitle(taskKey),
		Completed: completed,
	}
	if completed {
		at := now
		by := actor
		item.CompletedAt = &at
		item.CompletedBy = &by
	}
	return item
}
