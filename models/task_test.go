package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompletedTodoCount_DerivedFromChecklist(t *testing.T) {
	task := Task{
		TodoChecklist: []ChecklistItem{
			{Text: "a", Completed: false},
			{Text: "b", Completed: true},
		},
	}

	if got := task.CompletedTodoCount(); got != 1 {
		t.Fatalf("expected completedTodoCount 1, got %d", got)
	}

	task.TodoChecklist[0].Completed = true
	if got := task.CompletedTodoCount(); got != 2 {
		t.Fatalf("expected completedTodoCount 2 after completing item, got %d", got)
	}

	task.TodoChecklist = nil
	if got := task.CompletedTodoCount(); got != 0 {
		t.Fatalf("expected completedTodoCount 0 for empty checklist, got %d", got)
	}
}

func TestIsAssignedTo(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	u3 := primitive.NewObjectID()

	task := Task{AssignedTo: []primitive.ObjectID{u1, u2}}

	if !task.IsAssignedTo(u1) {
		t.Fatalf("expected u1 to be assigned")
	}
	if !task.IsAssignedTo(u2) {
		t.Fatalf("expected u2 to be assigned")
	}
	if task.IsAssignedTo(u3) {
		t.Fatalf("expected u3 not to be assigned")
	}
}

func TestTaskStatusValidation(t *testing.T) {
	for _, status := range []TaskStatus{StatusPending, StatusInProgress, StatusCompleted} {
		if !status.IsValid() {
			t.Fatalf("expected status %q to be valid", status)
		}
	}
	for _, status := range []TaskStatus{"", "Done", "pending"} {
		if status.IsValid() {
			t.Fatalf("expected status %q to be invalid", status)
		}
	}
}

func TestTaskPriorityValidation(t *testing.T) {
	for _, priority := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !priority.IsValid() {
			t.Fatalf("expected priority %q to be valid", priority)
		}
	}
	for _, priority := range []TaskPriority{"", "Urgent", "low"} {
		if priority.IsValid() {
			t.Fatalf("expected priority %q to be invalid", priority)
		}
	}
}
