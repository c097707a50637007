package graph

import (
	"fmt"

	"github.com/ziadkadry99/meshmap/internal/detect"
	"github.com/ziadkadry99/meshmap/internal/identity"
)

// Builder turns raw detector findings into provisional services and
// interactions ready for persistence. All names leave the builder already
// normalized; this is the single write-time normalization point.
type Builder struct{}

// NewBuilder creates a graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildServices groups findings by the resolved source service of their
// originating file and materializes one draft per service name.
func (b *Builder) BuildServices(findings []detect.Finding, repoFullName, commitSHA string) map[string]ServiceDraft {
	services := make(map[string]ServiceDraft)
	for _, f := range findings {
		ev := detect.Meta(f)
		name := identity.Normalize(identity.FromPath(ev.File, repoFullName))
		if _, ok := services[name]; ok {
			continue
		}
		services[name] = ServiceDraft{
			Name:          name,
			RepoFullName:  repoFullName,
			Language:      detect.LanguageForPath(ev.File),
			PathHint:      ev.File,
			LastCommitSHA: commitSHA,
		}
	}
	return services
}

// BuildInteractions resolves each finding into a directed edge draft and
// deduplicates the batch. HTTP targets come from the URL resolver. Kafka
// counterparts cannot be identified from a single finding, so a
// topic-derived placeholder name is used; the persist step later attempts
// topic-based matching against the stored graph before creating a
// placeholder service.
func (b *Builder) BuildInteractions(findings []detect.Finding, repoFullName string) []RawInteraction {
	var interactions []RawInteraction

	for _, f := range findings {
		switch f := f.(type) {
		case detect.HTTPFinding:
			interactions = append(interactions, RawInteraction{
				SourceService: identity.Normalize(identity.FromPath(f.File, repoFullName)),
				TargetService: identity.Normalize(identity.FromURL(f.URL)),
				EdgeType:      EdgeHTTP,
				Method:        f.Method,
				URL:           f.URL,
				Confidence:    f.Confidence,
				File:          f.File,
				Line:          f.Line,
				Detector:      f.Library,
			})

		case detect.KafkaFinding:
			self := identity.Normalize(identity.FromPath(f.File, repoFullName))
			in := RawInteraction{
				EdgeType:   EdgeKafka,
				Topic:      f.Topic,
				Direction:  string(f.Direction),
				Confidence: f.Confidence,
				File:       f.File,
				Line:       f.Line,
				Detector:   f.Library,
			}
			if f.Direction == detect.DirectionProducer {
				in.SourceService = self
				in.TargetService = consumerPlaceholder(f.Topic)
			} else {
				in.SourceService = producerPlaceholder(f.Topic)
				in.TargetService = self
			}
			interactions = append(interactions, in)
		}
	}

	return Deduplicate(interactions)
}

// consumerPlaceholder names the unknown consumer side of a produced topic.
func consumerPlaceholder(topic string) string {
	return identity.Normalize(fmt.Sprintf("service-consuming-%s", topic))
}

// producerPlaceholder names the unknown producer side of a consumed topic.
func producerPlaceholder(topic string) string {
	return identity.Normalize(fmt.Sprintf("service-producing-%s", topic))
}
