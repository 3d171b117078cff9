package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "rfp",
		Password: "secret",
		Database: "rfp_engine",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=rfp password=secret dbname=rfp_engine sslmode=require",
		cfg.ConnectionString())
}

func TestAIConfigCallTimeout(t *testing.T) {
	cfg := AIConfig{CallTimeoutSeconds: 90}
	assert.Equal(t, 90*time.Second, cfg.CallTimeout())
}

func TestExtractionConfigListParsing(t *testing.T) {
	cfg := ExtractionConfig{
		QuestionMarkersStr: "beschreiben, erläutern ,angeben",
		StopwordsStr:       "",
	}

	assert.Equal(t, []string{"beschreiben", "erläutern", "angeben"}, cfg.QuestionMarkers())
	assert.Nil(t, cfg.Stopwords())
}

func TestSplitCommaList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "describe", expected: []string{"describe"}},
		{name: "trims whitespace", input: " a , b ,c", expected: []string{"a", "b", "c"}},
		{name: "skips empty items", input: "a,,b,", expected: []string{"a", "b"}},
		{name: "only separators", input: ", ,", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitCommaList(tt.input))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		AI:         AIConfig{Provider: "openai"},
		Extraction: ExtractionConfig{BulkWorkers: 4},
		Knowledge:  KnowledgeConfig{SnippetLimit: 3},
	}
	require.NoError(t, valid.validate())

	// Empty provider means fallback-only operation and is allowed.
	noProvider := valid
	noProvider.AI.Provider = ""
	require.NoError(t, noProvider.validate())

	badProvider := valid
	badProvider.AI.Provider = "bedrock"
	err := badProvider.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai provider")

	badWorkers := valid
	badWorkers.Extraction.BulkWorkers = 0
	require.Error(t, badWorkers.validate())

	badSnippets := valid
	badSnippets.Knowledge.SnippetLimit = -1
	require.Error(t, badSnippets.validate())
}
