package task

import (
	"time"

	"github.com/google/uuid"
)

const jobIDLayout = "20060102-150405"

// JobID は1回のエージェント実行を識別する値オブジェクト
type JobID struct {
	value string
}

// NewJobID は現在時刻から新しいJobIDを生成
func NewJobID() JobID {
	return NewJobIDAt(time.Now())
}

// NewJobIDAt は指定時刻のJobIDを生成
// フォーマット: YYYYMMDD-HHMMSS-{UUID先頭8文字}
func NewJobIDAt(at time.Time) JobID {
	return JobID{value: at.Format(jobIDLayout) + "-" + uuid.NewString()[:8]}
}

func (j JobID) String() string {
	return j.value
}

// IsZero はJobIDがゼロ値かを判定
func (j JobID) IsZero() bool {
	return j.value == ""
}
