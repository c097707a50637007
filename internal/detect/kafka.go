package detect

import "regexp"

// kafkaPattern matches one produce or consume idiom; the topic literal is
// always capture group 1.
type kafkaPattern struct {
	re         *regexp.Regexp
	library    string
	direction  Direction
	confidence float64
}

type kafkaDetector struct {
	name     string
	patterns []kafkaPattern
}

func (d *kafkaDetector) Name() string { return d.name }

func (d *kafkaDetector) Detect(path, content string) []Finding {
	var findings []Finding
	for _, p := range d.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
			topic := group(content, m, 1)
			if topic == "" {
				continue
			}
			findings = append(findings, KafkaFinding{
				Evidence: Evidence{
					File:       path,
					Line:       lineAt(content, m[0]),
					Library:    p.library,
					Confidence: p.confidence,
				},
				Topic:     topic,
				Direction: p.direction,
			})
		}
	}
	return findings
}

var pythonKafkaPatterns = []kafkaPattern{
	{re: regexp.MustCompile(`producer\.send\(['"]([^'"]+)['"]`),
		library: "producer", direction: DirectionProducer, confidence: 0.85},
	{re: regexp.MustCompile(`KafkaProducer\([^)]*\)\.send\(['"]([^'"]+)['"]`),
		library: "kafka-python", direction: DirectionProducer, confidence: 0.85},
	{re: regexp.MustCompile(`confluent_kafka\.Producer\([^)]*\)\.produce\(['"]([^'"]+)['"]`),
		library: "confluent-kafka", direction: DirectionProducer, confidence: 0.85},
	{re: regexp.MustCompile(`consumer\.subscribe\(\[['"]([^'"]+)['"]`),
		library: "consumer", direction: DirectionConsumer, confidence: 0.85},
	{re: regexp.MustCompile(`KafkaConsumer\(['"]([^'"]+)['"]`),
		library: "kafka-python", direction: DirectionConsumer, confidence: 0.85},
	{re: regexp.MustCompile(`confluent_kafka\.Consumer\([^)]*\)\.subscribe\(\[['"]([^'"]+)['"]`),
		library: "confluent-kafka", direction: DirectionConsumer, confidence: 0.85},
}

var javaKafkaPatterns = []kafkaPattern{
	// Annotation-driven listeners are the strongest signal we match.
	{re: regexp.MustCompile(`@KafkaListener\(topics\s*=\s*['"]([^'"]+)['"]`),
		library: "SpringKafka", direction: DirectionConsumer, confidence: 0.90},
	{re: regexp.MustCompile(`consumer\.subscribe\([^)]*['"]([^'"]+)['"]`),
		library: "KafkaConsumer", direction: DirectionConsumer, confidence: 0.85},
	{re: regexp.MustCompile(`kafkaProducer\.send\([^)]*['"]([^'"]+)['"]`),
		library: "KafkaProducer", direction: DirectionProducer, confidence: 0.85},
}

var nodeKafkaPatterns = []kafkaPattern{
	{re: regexp.MustCompile(`(?s)producer\.send\([^)]*topic:\s*['"]([^'"]+)['"]`),
		library: "kafkajs", direction: DirectionProducer, confidence: 0.85},
	{re: regexp.MustCompile(`(?s)kafka\.Producer\([^)]*\)\.send\([^)]*['"]([^'"]+)['"]`),
		library: "node-rdkafka", direction: DirectionProducer, confidence: 0.85},
	{re: regexp.MustCompile(`(?s)consumer\.subscribe\([^)]*topics:\s*\[['"]([^'"]+)['"]`),
		library: "kafkajs", direction: DirectionConsumer, confidence: 0.85},
	{re: regexp.MustCompile(`(?s)kafka\.Consumer\([^)]*\)\.subscribe\(['"]([^'"]+)['"]`),
		library: "node-rdkafka", direction: DirectionConsumer, confidence: 0.85},
}

// PythonKafka detects Kafka producers and consumers in Python code.
func PythonKafka() Detector {
	return &kafkaDetector{name: "python-kafka", patterns: pythonKafkaPatterns}
}

// JavaKafka detects Kafka producers and consumers in Java code.
func JavaKafka() Detector {
	return &kafkaDetector{name: "java-kafka", patterns: javaKafkaPatterns}
}

// NodeKafka detects Kafka producers and consumers in Node/TypeScript code.
func NodeKafka() Detector {
	return &kafkaDetector{name: "node-kafka", patterns: nodeKafkaPatterns}
}
