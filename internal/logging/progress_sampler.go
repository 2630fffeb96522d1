package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs. It emits when the
// tracked subject changes or the percentage crosses a bucket boundary.
type ProgressSampler struct {
	bucketSize float64
	subject    string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for subject at percent should be
// logged. A negative percent means the total is unknown.
func (s *ProgressSampler) ShouldLog(subject string, percent float64) bool {
	if s == nil {
		return true
	}
	subject = strings.TrimSpace(subject)
	emit := false
	if subject != s.subject {
		s.subject = subject
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}
