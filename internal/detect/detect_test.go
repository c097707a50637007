package detect

import (
	"strings"
	"testing"
)

func allDetectors() []Detector {
	return []Detector{
		PythonHTTP(), PythonKafka(),
		JavaScriptHTTP(), NodeKafka(),
		JavaHTTP(), JavaKafka(),
	}
}

func TestDetectEmptyAndNonCodeContent(t *testing.T) {
	inputs := []string{
		"",
		"This is plain prose about microservices and Kafka topics.",
		"def broken(:\n  return",
		"function { [ ( mismatched",
		"public class { { {",
	}
	for _, d := range allDetectors() {
		for _, content := range inputs {
			findings := d.Detect("x.py", content)
			if len(findings) != 0 {
				t.Errorf("%s returned %d findings for non-matching content %q", d.Name(), len(findings), content)
			}
		}
	}
}

func TestPythonHTTPRequestsGet(t *testing.T) {
	content := "import requests\n\nresp = requests.get('https://order-service/api/x')\n"
	findings := PythonHTTP().Detect("services/checkout/app.py", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f, ok := findings[0].(HTTPFinding)
	if !ok {
		t.Fatalf("finding is %T, want HTTPFinding", findings[0])
	}
	if f.Method != "GET" {
		t.Errorf("method = %q, want GET", f.Method)
	}
	if f.URL != "https://order-service/api/x" {
		t.Errorf("url = %q", f.URL)
	}
	if f.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", f.Confidence)
	}
	if f.Line != 3 {
		t.Errorf("line = %d, want 3", f.Line)
	}
	if f.File != "services/checkout/app.py" {
		t.Errorf("file = %q", f.File)
	}
}

func TestLineNumberIsOneBased(t *testing.T) {
	lines := make([]string, 10)
	lines[4] = `requests.post('https://billing/api/charge')`
	content := strings.Join(lines, "\n")

	findings := PythonHTTP().Detect("app.py", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if got := Meta(findings[0]).Line; got != 5 {
		t.Errorf("line = %d, want 5", got)
	}
}

func TestPythonURLLibLowerConfidence(t *testing.T) {
	content := `data = urllib.request.urlopen('http://legacy-service/api/v1')`
	findings := PythonHTTP().Detect("app.py", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0].(HTTPFinding)
	if f.Confidence != 0.80 {
		t.Errorf("confidence = %v, want 0.80", f.Confidence)
	}
	if f.Method != "GET" {
		t.Errorf("method = %q, want GET fallback", f.Method)
	}
}

func TestPythonKafkaConsumerSubscribe(t *testing.T) {
	content := "consumer.subscribe(['user-events'])\n"
	findings := PythonKafka().Detect("services/payments/worker.py", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f, ok := findings[0].(KafkaFinding)
	if !ok {
		t.Fatalf("finding is %T, want KafkaFinding", findings[0])
	}
	if f.Topic != "user-events" {
		t.Errorf("topic = %q, want user-events", f.Topic)
	}
	if f.Direction != DirectionConsumer {
		t.Errorf("direction = %q, want consumer", f.Direction)
	}
}

func TestPythonKafkaProducerSend(t *testing.T) {
	content := `producer.send('order-events', payload)`
	findings := PythonKafka().Detect("app.py", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0].(KafkaFinding)
	if f.Topic != "order-events" || f.Direction != DirectionProducer {
		t.Errorf("got topic=%q direction=%q", f.Topic, f.Direction)
	}
}

func TestJavaKafkaListenerAnnotation(t *testing.T) {
	content := `@KafkaListener(topics = "orders", groupId = "billing")`
	findings := JavaKafka().Detect("Listener.java", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0].(KafkaFinding)
	if f.Topic != "orders" {
		t.Errorf("topic = %q, want orders", f.Topic)
	}
	if f.Direction != DirectionConsumer {
		t.Errorf("direction = %q, want consumer", f.Direction)
	}
	if f.Confidence != 0.90 {
		t.Errorf("confidence = %v, want 0.90", f.Confidence)
	}
}

func TestJavaScriptAxiosPost(t *testing.T) {
	content := `await axios.post('https://auth-service/api/login', body)`
	findings := JavaScriptHTTP().Detect("index.js", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0].(HTTPFinding)
	if f.Method != "POST" {
		t.Errorf("method = %q, want POST", f.Method)
	}
	if f.URL != "https://auth-service/api/login" {
		t.Errorf("url = %q", f.URL)
	}
}

func TestKafkajsConsumerAcrossLines(t *testing.T) {
	content := "await consumer.subscribe({\n  topics: ['user-events'],\n})\n"
	findings := NodeKafka().Detect("consumer.js", content)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0].(KafkaFinding)
	if f.Topic != "user-events" || f.Direction != DirectionConsumer {
		t.Errorf("got topic=%q direction=%q", f.Topic, f.Direction)
	}
}

func TestForLanguageSelection(t *testing.T) {
	cases := []struct {
		language string
		want     int
	}{
		{"python", 2},
		{"javascript", 2},
		{"typescript", 2},
		{"java", 2},
		{"ruby", 0},
		{"unknown", 0},
	}
	for _, tc := range cases {
		if got := len(ForLanguage(tc.language)); got != tc.want {
			t.Errorf("ForLanguage(%q) returned %d detectors, want %d", tc.language, got, tc.want)
		}
	}
}

func TestLanguageForPath(t *testing.T) {
	cases := map[string]string{
		"services/a/app.py": "python",
		"web/index.js":      "javascript",
		"web/App.tsx":       "typescript",
		"src/Main.java":     "java",
		"README.md":         "unknown",
		"Makefile":          "unknown",
	}
	for path, want := range cases {
		if got := LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
