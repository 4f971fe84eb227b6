package fakebackend

import (
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-rag-admin/training"
)

type storedDocument struct {
	training.Document
	TenantCode string
	Content    []byte
}

type storedWebsite struct {
	training.Website
	TenantCode string
}

// library holds uploaded documents and scraped websites per tenant.
type library struct {
	mu        sync.RWMutex
	nextID    int
	documents map[int]*storedDocument
	websites  map[int]*storedWebsite
}

func newLibrary() *library {
	return &library{
		documents: make(map[int]*storedDocument),
		websites:  make(map[int]*storedWebsite),
	}
}

func (l *library) addDocument(tenantCode string, uploaderID int, name string, content []byte, now time.Time) training.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	doc := &storedDocument{
		Document: training.Document{
			ID:           l.nextID,
			Filename:     name,
			OriginalName: name,
			CreatedAt:    now.UTC().Format(time.RFC3339),
			Status:       "processed",
			UploaderID:   uploaderID,
			NumChunks:    len(content)/1000 + 1,
		},
		TenantCode: tenantCode,
		Content:    content,
	}
	l.documents[doc.ID] = doc
	return doc.Document
}

func (l *library) listDocuments(tenantCode string, uploaderID int) []training.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]training.Document, 0)
	for _, d := range l.documents {
		if d.TenantCode != tenantCode || (uploaderID != 0 && d.UploaderID != uploaderID) {
			continue
		}
		out = append(out, d.Document)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *library) deleteDocument(tenantCode string, id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.documents[id]
	if !ok || d.TenantCode != tenantCode {
		return false
	}
	delete(l.documents, id)
	return true
}

func (l *library) addWebsite(tenantCode string, uploaderID int, url string, now time.Time) training.Website {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	site := &storedWebsite{
		Website: training.Website{
			ID:         l.nextID,
			URL:        url,
			Status:     "scraped",
			CreatedAt:  now.UTC().Format(time.RFC3339),
			UploaderID: uploaderID,
			NumChunks:  1,
		},
		TenantCode: tenantCode,
	}
	l.websites[site.ID] = site
	return site.Website
}

func (l *library) listWebsites(tenantCode string, uploaderID int) []training.Website {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]training.Website, 0)
	for _, w := range l.websites {
		if w.TenantCode != tenantCode || (uploaderID != 0 && w.UploaderID != uploaderID) {
			continue
		}
		out = append(out, w.Website)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *library) deleteWebsite(tenantCode string, id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.websites[id]
	if !ok || w.TenantCode != tenantCode {
		return false
	}
	delete(l.websites, id)
	return true
}
