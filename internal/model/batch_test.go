package model

import "testing"

func TestBatch_Summary(t *testing.T) {
	batch := NewBatch("batch-1", "http://example.test/list")

	statuses := []TaskStatus{TaskStatusCompleted, TaskStatusError, TaskStatusCompleted, TaskStatusSkipped, TaskStatusPending}
	for i, status := range statuses {
		task := NewDownloadTask("t", NewFileLink("http://example.test/a.mkv"))
		task.Status = status
		task.BytesWritten = int64(100 * (i + 1))
		batch.AddTask(task)
	}

	summary := batch.Summary()
	if summary.Total != 5 {
		t.Errorf("Expected total 5, got %d", summary.Total)
	}
	if summary.Completed != 2 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.Bytes != 100+300 {
		t.Errorf("Expected only completed bytes to be counted, got %d", summary.Bytes)
	}
	if !batch.HasErrors() {
		t.Error("Expected batch to report errors")
	}
	if len(batch.Pending()) != 1 {
		t.Errorf("Expected 1 pending task, got %d", len(batch.Pending()))
	}
}

func TestBatch_Empty(t *testing.T) {
	batch := NewBatch("batch-2", "http://example.test/")
	if batch.HasErrors() {
		t.Error("Empty batch should have no errors")
	}
	if got := batch.Summary().String(); got != "0 completed, 0 failed, 0 skipped (0 bytes)" {
		t.Errorf("Unexpected summary line: %s", got)
	}
}
