package api

import (
	"fieldcap/internal/queue"
)

// FromEntry converts a queue record to its API representation.
func FromEntry(entry *queue.Entry) QueueItem {
	if entry == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:             entry.ID,
		Status:         string(entry.Status),
		SupplierID:     entry.SupplierID,
		SupplierName:   entry.SupplierName,
		ModelID:        entry.ModelID,
		ModelName:      entry.ModelName,
		Price:          entry.Price,
		Currency:       entry.Currency,
		Quantity:       entry.Quantity,
		ContentType:    entry.ContentType,
		FileSize:       entry.FileSize,
		BatchID:        entry.BatchID,
		Progress:       entry.Progress,
		RetryCount:     entry.RetryCount,
		ErrorMessage:   entry.ErrorMessage,
		StoragePath:    entry.StoragePath,
		Uploaded:       entry.Uploaded,
		RemoteRecordID: entry.RemoteRecordID,
	}
	if entry.NextAttemptAt != nil {
		dto.NextAttemptAt = entry.NextAttemptAt.UTC().Format(dateTimeFormat)
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromEntries converts a slice of queue records.
func FromEntries(entries []*queue.Entry) []QueueItem {
	out := make([]QueueItem, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// MergeQueueStats normalizes per-status counts so every known status has an
// entry, plus a total.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(stats)+1)
	total := 0
	for _, status := range queue.AllStatuses() {
		count := stats[status]
		merged[string(status)] = count
		total += count
	}
	merged["total"] = total
	return merged
}
