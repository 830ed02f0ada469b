package knowledge

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

// minScore is the relevance floor below which matches are discarded.
const minScore = 0.3

// Document is one reference entry in the knowledge base.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Result is a scored match, score in [0,1].
type Result struct {
	Title   string
	Content string
	Score   float64
}

type baseFile struct {
	Documents []Document `json:"documents"`
}

// Base is a file-backed document store with cosine similarity search over
// term-frequency vectors. Safe for concurrent use.
type Base struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	docs    []Document
	vectors []map[string]float64
}

// NewBase loads the knowledge base from path. A missing file yields an
// empty base; search over an empty base returns no results.
func NewBase(path string, logger *zap.Logger) *Base {
	b := &Base{path: path, logger: logger}
	if err := b.load(); err != nil {
		logger.Warn("knowledge base unavailable", zap.String("path", path), zap.Error(err))
	}
	return b
}

func (b *Base) load() error {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var file baseFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = file.Documents
	b.vectors = make([]map[string]float64, len(file.Documents))
	for i, doc := range file.Documents {
		b.vectors[i] = vectorize(doc.Title + "\n" + doc.Content)
	}
	b.logger.Info("knowledge base loaded", zap.Int("documents", len(b.docs)))
	return nil
}

// Search returns up to topK documents most similar to the query, best first,
// skipping anything below the relevance floor.
func (b *Base) Search(query string, topK int) []Result {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.docs) == 0 || topK <= 0 {
		return nil
	}
	queryVec := vectorize(query)
	if len(queryVec) == 0 {
		return nil
	}

	results := make([]Result, 0, len(b.docs))
	for i, doc := range b.docs {
		score := cosine(queryVec, b.vectors[i])
		if score > minScore {
			results = append(results, Result{Title: doc.Title, Content: doc.Content, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// AddDocument appends a document and persists the base back to disk.
func (b *Base) AddDocument(title, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs = append(b.docs, Document{Title: title, Content: content})
	b.vectors = append(b.vectors, vectorize(title+"\n"+content))

	raw, err := json.MarshalIndent(baseFile{Documents: b.docs}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, raw, 0o644)
}

// Len returns the number of loaded documents.
func (b *Base) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func vectorize(text string) map[string]float64 {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	vec := make(map[string]float64, len(terms))
	for _, term := range terms {
		vec[term]++
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, weight := range a {
		normA += weight * weight
		if other, ok := b[term]; ok {
			dot += weight * other
		}
	}
	for _, weight := range b {
		normB += weight * weight
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
