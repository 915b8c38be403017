package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// GuideDocID is the document that holds the community guide. Guide section
// routing resolves dot paths against this document only.
const GuideDocID = "community_guide"

// Document is one structured knowledge document loaded from disk.
type Document struct {
	ID    string
	Title string
	Data  Value
}

// Store holds the structured knowledge documents. Documents load once at
// construction; the store is read-only afterwards and safe for concurrent
// use.
type Store struct {
	docs  []Document
	byID  map[string]int
	guide Value
}

// NewStore loads every *.json file under dir as a document. A missing
// directory yields an empty store. A file that fails to parse is logged
// and skipped so one bad document cannot take the knowledge base down.
func NewStore(dir string, logger log.Logger) (*Store, error) {
	s := &Store{byID: make(map[string]int)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("policy document directory missing, knowledge base is empty", "dir", dir)
			return s, nil
		}
		return nil, fmt.Errorf("reading policy directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable policy document", "path", path, "error", err)
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		value, err := ParseValue(data)
		if err != nil {
			logger.Warn("skipping malformed policy document", "path", path, "error", err)
			continue
		}
		s.add(Document{ID: id, Title: titleFor(id, value), Data: value})
	}

	logger.Info("policy documents loaded", "count", len(s.docs), "dir", dir)
	return s, nil
}

// NewStoreFromDocuments builds a store from in-memory documents. Later
// documents with a duplicate ID replace earlier ones.
func NewStoreFromDocuments(docs []Document) *Store {
	s := &Store{byID: make(map[string]int)}
	for _, doc := range docs {
		if doc.Title == "" {
			doc.Title = titleFor(doc.ID, doc.Data)
		}
		s.add(doc)
	}
	return s
}

func (s *Store) add(doc Document) {
	if i, ok := s.byID[doc.ID]; ok {
		s.docs[i] = doc
	} else {
		s.byID[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
	}
	if doc.ID == GuideDocID {
		s.guide = doc.Data
	}
}

// ByID returns the document with the given ID.
func (s *Store) ByID(id string) (Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[i], true
}

// Guide returns the community guide document tree. The zero Value is
// returned when no guide document was loaded.
func (s *Store) Guide() Value { return s.guide }

// Len reports how many documents are loaded.
func (s *Store) Len() int { return len(s.docs) }

// titleFor prefers an explicit title field and falls back to a humanized
// form of the document ID.
func titleFor(id string, data Value) string {
	if t := data.StringAt("title"); t != "" {
		return t
	}
	words := strings.Split(strings.ReplaceAll(id, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
