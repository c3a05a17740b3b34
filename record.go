package imagechat

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IDSource produces record identifiers.
type IDSource func(createdAt time.Time) string

// NewRecordID combines the creation time in milliseconds with a random UUID,
// so IDs sort roughly by time and stay unique within one millisecond.
func NewRecordID(createdAt time.Time) string {
	return strconv.FormatInt(createdAt.UnixMilli(), 10) + "-" + uuid.NewString()
}

// newRecords wraps provider images into GenerationRecords sharing one
// capture timestamp.
func newRecords(images []ProviderImage, createdAt time.Time, ids IDSource) []GenerationRecord {
	records := make([]GenerationRecord, 0, len(images))
	for _, img := range images {
		records = append(records, GenerationRecord{
			ID:            ids(createdAt),
			EncodedData:   img.B64JSON,
			URL:           img.URL,
			RevisedPrompt: img.RevisedPrompt,
			CreatedAt:     createdAt,
		})
	}
	return records
}
