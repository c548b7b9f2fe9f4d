// Package estest is an in-memory stand-in for the parts of the Elasticsearch
// REST api the indexer uses: index admin, bulk and single document writes,
// and bool/term/terms/range searches with sort and size.
package estest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/gorilla/mux"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	indices  map[string]map[string]map[string]interface{}
	mappings map[string]string
	throttle int
	searches []map[string]interface{}
	bulks    int
}

func NewServer() *Server {
	s := &Server{
		indices:  make(map[string]map[string]map[string]interface{}),
		mappings: make(map[string]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/_bulk", s.bulk).Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/{index}/_search", s.search).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/{index}/_doc/{id}", s.doc).Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/{index}", s.exists).Methods(http.MethodHead)
	r.HandleFunc("/{index}", s.create).Methods(http.MethodPut)
	r.HandleFunc("/{index}", s.delete).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	return s
}

// Throttle makes the next n write requests answer 429.
func (s *Server) Throttle(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = n
}

func (s *Server) Docs(index string) map[string]map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make(map[string]map[string]interface{})
	for id, doc := range s.indices[index] {
		docs[id] = doc
	}
	return docs
}

func (s *Server) Mapping(index string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[index]
	return m, ok
}

func (s *Server) BulkRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulks
}

func (s *Server) LastSearch() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.searches) == 0 {
		return nil
	}
	return s.searches[len(s.searches)-1]
}

func (s *Server) throttled(w http.ResponseWriter) bool {
	if s.throttle == 0 {
		return false
	}
	s.throttle--
	writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":  map[string]interface{}{"type": "es_rejected_execution_exception", "reason": "rejected"},
		"status": http.StatusTooManyRequests,
	})
	return true
}

func (s *Server) put(index, id string, doc map[string]interface{}) {
	if s.indices[index] == nil {
		s.indices[index] = make(map[string]map[string]interface{})
	}
	s.indices[index][id] = doc
}

func (s *Server) exists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mappings[mux.Vars(r)["index"]]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := mux.Vars(r)["index"]
	var body bytes.Buffer
	_, _ = body.ReadFrom(r.Body)
	s.mappings[index] = body.String()
	s.indices[index] = make(map[string]map[string]interface{})

	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true, "index": index})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := mux.Vars(r)["index"]
	delete(s.mappings, index)
	delete(s.indices, index)

	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}

func (s *Server) doc(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.throttled(w) {
		return
	}

	vars := mux.Vars(r)
	var doc map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "status": 400})
		return
	}
	s.put(vars["index"], vars["id"], doc)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"_index": vars["index"], "_id": vars["id"], "result": "created", "_version": 1,
	})
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.throttled(w) {
		return
	}
	s.bulks++

	items := make([]map[string]interface{}, 0)
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var action map[string]struct {
			Index string `json:"_index"`
			Id    string `json:"_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "status": 400})
			return
		}
		if !scanner.Scan() {
			break
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "status": 400})
			return
		}

		for op, meta := range action {
			s.put(meta.Index, meta.Id, doc)
			items = append(items, map[string]interface{}{
				op: map[string]interface{}{"_index": meta.Index, "_id": meta.Id, "status": http.StatusCreated, "result": "created"},
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"took": 1, "errors": false, "items": items})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := mux.Vars(r)["index"]
	body := make(map[string]interface{})
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "status": 400})
			return
		}
	}
	s.searches = append(s.searches, body)

	type hit struct {
		id  string
		doc map[string]interface{}
	}
	hits := make([]hit, 0)
	for id, doc := range s.indices[index] {
		if matches(body["query"], doc) {
			hits = append(hits, hit{id, doc})
		}
	}

	sortKeys := sortOrder(body["sort"])
	sort.SliceStable(hits, func(i, j int) bool {
		for _, key := range sortKeys {
			a, b := number(hits[i].doc[key.field]), number(hits[j].doc[key.field])
			if a == b {
				continue
			}
			if key.desc {
				return a > b
			}
			return a < b
		}
		return hits[i].id < hits[j].id
	})

	if size, ok := body["size"].(float64); ok && int(size) < len(hits) {
		hits = hits[:int(size)]
	}

	out := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		out = append(out, map[string]interface{}{"_index": index, "_id": h.id, "_source": h.doc})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"took": 1,
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(out), "relation": "eq"},
			"hits":  out,
		},
	})
}

type sortKey struct {
	field string
	desc  bool
}

func sortOrder(v interface{}) []sortKey {
	keys := make([]sortKey, 0)
	list, _ := v.([]interface{})
	for _, item := range list {
		clause, _ := item.(map[string]interface{})
		for field, opts := range clause {
			order, _ := opts.(map[string]interface{})
			keys = append(keys, sortKey{field, order["order"] == "desc"})
		}
	}
	return keys
}

func matches(query interface{}, doc map[string]interface{}) bool {
	q, ok := query.(map[string]interface{})
	if !ok {
		return true
	}

	for kind, clause := range q {
		switch kind {
		case "bool":
			b, _ := clause.(map[string]interface{})
			must, _ := b["must"].([]interface{})
			if m, ok := b["must"].(map[string]interface{}); ok {
				must = []interface{}{m}
			}
			for _, sub := range must {
				if !matches(sub, doc) {
					return false
				}
			}
		case "match_all":
		case "term":
			for field, value := range clause.(map[string]interface{}) {
				if v, ok := value.(map[string]interface{}); ok {
					value = v["value"]
				}
				if fmt.Sprint(doc[field]) != fmt.Sprint(value) {
					return false
				}
			}
		case "terms":
			for field, values := range clause.(map[string]interface{}) {
				found := false
				list, _ := values.([]interface{})
				for _, value := range list {
					if fmt.Sprint(doc[field]) == fmt.Sprint(value) {
						found = true
					}
				}
				if !found {
					return false
				}
			}
		case "range":
			for field, bounds := range clause.(map[string]interface{}) {
				if !inRange(number(doc[field]), bounds.(map[string]interface{})) {
					return false
				}
			}
		default:
			return false
		}
	}

	return true
}

func inRange(v float64, b map[string]interface{}) bool {
	includeLower, includeUpper := true, true
	if inc, ok := b["include_lower"].(bool); ok {
		includeLower = inc
	}
	if inc, ok := b["include_upper"].(bool); ok {
		includeUpper = inc
	}

	if from, ok := b["from"].(float64); ok {
		if v < from || (!includeLower && v == from) {
			return false
		}
	}
	if to, ok := b["to"].(float64); ok {
		if v > to || (!includeUpper && v == to) {
			return false
		}
	}
	if lt, ok := b["lt"].(float64); ok && v >= lt {
		return false
	}
	if gt, ok := b["gt"].(float64); ok && v <= gt {
		return false
	}

	return true
}

func number(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
