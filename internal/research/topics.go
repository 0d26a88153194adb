package research

import (
	"sort"
	"strings"
)

var techTopics = map[string][]string{
	"golang":              {"golang", "goroutine", "go 1."},
	"rust":                {"rust", "rustlang", "cargo"},
	"python":              {"python", "django", "pytorch"},
	"javascript":          {"javascript", "typescript", "nodejs", "react"},
	"ai-agents":           {"agent", "claude", "llm", "mcp", "skills"},
	"distributed-systems": {"distributed", "consensus", "raft", "microservices"},
	"databases":           {"database", "sql", "postgres", "redis"},
	"kubernetes":          {"kubernetes", "k8s", "docker", "container"},
	"performance":         {"performance", "latency", "benchmark"},
	"security":            {"security", "vulnerability", "encryption"},
	"machine-learning":    {"machine learning", "neural", "model training"},
	"devops":              {"devops", "ci/cd", "terraform"},
	"testing":             {"testing", "unit test", "tdd"},
	"api":                 {"api", "graphql", "grpc", "openapi"},
}

// detectTopics lists the known topics mentioned across titles, sorted.
func detectTopics(titles []string) []string {
	content := strings.ToLower(strings.Join(titles, " "))
	found := []string{}
	for topic, keywords := range techTopics {
		for _, keyword := range keywords {
			if strings.Contains(content, keyword) {
				found = append(found, topic)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}
