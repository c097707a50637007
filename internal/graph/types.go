package graph

import "time"

// EdgeType classifies an interaction edge.
type EdgeType string

const (
	EdgeHTTP  EdgeType = "HTTP"
	EdgeKafka EdgeType = "Kafka"
	EdgeGRPC  EdgeType = "gRPC"
	EdgeOther EdgeType = "Other"
)

// Repository is a scanned source repository.
type Repository struct {
	ID            string     `json:"id"`
	FullName      string     `json:"full_name"`
	Provider      string     `json:"provider"`
	DefaultBranch string     `json:"default_branch"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Service is a logical deployable unit inferred from code structure.
// A placeholder service stands in for an interaction endpoint that could
// not be matched to any scanned service.
type Service struct {
	ID            string    `json:"id"`
	RepoID        string    `json:"repo_id"`
	Name          string    `json:"name"`
	Language      string    `json:"language,omitempty"`
	PathHint      string    `json:"path_hint,omitempty"`
	LastCommitSHA string    `json:"last_commit_sha,omitempty"`
	Placeholder   bool      `json:"placeholder,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Interaction is a persisted directed edge between two services.
// Structurally identical edges are collapsed within one scan batch but a
// rescan inserts fresh rows; rows are never updated in place.
type Interaction struct {
	ID              string    `json:"id"`
	SourceServiceID string    `json:"source_service_id"`
	TargetServiceID string    `json:"target_service_id"`
	EdgeType        EdgeType  `json:"edge_type"`
	HTTPMethod      string    `json:"http_method,omitempty"`
	HTTPURL         string    `json:"http_url,omitempty"`
	KafkaTopic      string    `json:"kafka_topic,omitempty"`
	Direction       string    `json:"direction,omitempty"`
	Confidence      float64   `json:"confidence"`
	Evidence        string    `json:"evidence,omitempty"`
	DetectorName    string    `json:"detector_name,omitempty"`
	CommitSHA       string    `json:"commit_sha,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// ServiceDraft is a provisional service produced by the builder, keyed by
// normalized name, before persistence assigns an ID.
type ServiceDraft struct {
	Name          string `json:"name"`
	RepoFullName  string `json:"repo_full_name"`
	Language      string `json:"language"`
	PathHint      string `json:"path_hint"`
	LastCommitSHA string `json:"last_commit_sha"`
}

// RawInteraction is a provisional edge produced by the builder; endpoints
// are still names, not service IDs.
type RawInteraction struct {
	SourceService string   `json:"source_service"`
	TargetService string   `json:"target_service"`
	EdgeType      EdgeType `json:"type"`
	Method        string   `json:"method,omitempty"`
	URL           string   `json:"url,omitempty"`
	Topic         string   `json:"topic,omitempty"`
	Direction     string   `json:"direction,omitempty"`
	Confidence    float64  `json:"confidence"`
	File          string   `json:"file"`
	Line          int      `json:"line"`
	Detector      string   `json:"detector"`
}
