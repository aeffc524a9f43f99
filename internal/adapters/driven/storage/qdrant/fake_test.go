package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/custodia-labs/chai-cli/internal/catalog"
)

// fakeQdrant is an in-process subset of the Qdrant REST API, enough to run
// the store against without a server.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	requests    []string
}

type fakeCollection struct {
	size     int
	distance string
	indexes  map[string]string
	points   map[string]*fakePoint
}

type fakePoint struct {
	vectors map[string][]float32
	payload map[string]any
}

type fakeFilter struct {
	Must    []fakeCondition `json:"must"`
	MustNot []fakeCondition `json:"must_not"`
}

type fakeCondition struct {
	Key   string `json:"key"`
	Match struct {
		Value any `json:"value"`
	} `json:"match"`
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{collections: make(map[string]*fakeCollection)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /collections/{name}", f.withCollection(f.getCollection))
	mux.HandleFunc("PUT /collections/{name}", f.createCollection)
	mux.HandleFunc("PUT /collections/{name}/index", f.withCollection(f.createIndex))
	mux.HandleFunc("PUT /collections/{name}/points", f.withCollection(f.upsertPoints))
	mux.HandleFunc("POST /collections/{name}/points", f.withCollection(f.retrievePoints))
	mux.HandleFunc("PUT /collections/{name}/points/payload", f.withCollection(f.overwritePayload))
	mux.HandleFunc("POST /collections/{name}/points/delete", f.withCollection(f.deletePoints))
	mux.HandleFunc("POST /collections/{name}/points/search", f.withCollection(f.search))
	mux.HandleFunc("POST /collections/{name}/points/scroll", f.withCollection(f.scroll))
	mux.HandleFunc("POST /collections/{name}/points/count", f.withCollection(f.count))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

// newFakeStore returns a store pointed at a fresh fake server.
func newFakeStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	f, srv := newFakeQdrant(t)
	store, err := NewStore(Config{URL: srv.URL, Collection: "teas", VectorSize: 4})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, f
}

func (f *fakeQdrant) countRequests(req string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == req {
			n++
		}
	}
	return n
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok", "time": 0.001})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": map[string]any{"error": msg}, "time": 0.001})
}

func (f *fakeQdrant) withCollection(
	h func(w http.ResponseWriter, r *http.Request, c *fakeCollection),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			writeError(w, http.StatusNotFound, "Not found: Collection `"+r.PathValue("name")+"` doesn't exist!")
			return
		}
		h(w, r, c)
	}
}

func (f *fakeQdrant) getCollection(w http.ResponseWriter, _ *http.Request, c *fakeCollection) {
	writeResult(w, map[string]any{
		"status": "green",
		"config": map[string]any{
			"params": map[string]any{
				"vectors": map[string]any{
					vectorName: map[string]any{"size": c.size, "distance": c.distance},
				},
			},
		},
	})
}

func (f *fakeQdrant) createCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vectors map[string]struct {
			Size     int    `json:"size"`
			Distance string `json:"distance"`
		} `json:"vectors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.PathValue("name")
	if _, exists := f.collections[name]; exists {
		writeError(w, http.StatusConflict, "Collection `"+name+"` already exists!")
		return
	}
	params := req.Vectors[vectorName]
	f.collections[name] = &fakeCollection{
		size:     params.Size,
		distance: params.Distance,
		indexes:  make(map[string]string),
		points:   make(map[string]*fakePoint),
	}
	writeResult(w, true)
}

func (f *fakeQdrant) createIndex(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		FieldName   string `json:"field_name"`
		FieldSchema string `json:"field_schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.indexes[req.FieldName] = req.FieldSchema
	writeResult(w, map[string]any{"status": "completed"})
}

func (f *fakeQdrant) upsertPoints(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Points []struct {
			ID      string               `json:"id"`
			Vector  map[string][]float32 `json:"vector"`
			Payload map[string]any       `json:"payload"`
		} `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, p := range req.Points {
		for _, v := range p.Vector {
			if len(v) != c.size {
				writeError(w, http.StatusBadRequest, "Wrong input: Vector dimension error")
				return
			}
		}
		c.points[p.ID] = &fakePoint{vectors: p.Vector, payload: p.Payload}
	}
	writeResult(w, map[string]any{"operation_id": 1, "status": "completed"})
}

func (f *fakeQdrant) retrievePoints(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		IDs         []string `json:"ids"`
		WithPayload any      `json:"with_payload"`
		WithVector  any      `json:"with_vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := []map[string]any{}
	for _, id := range req.IDs {
		if p, ok := c.points[id]; ok {
			point := map[string]any{"id": id, "payload": selectPayload(p.payload, req.WithPayload)}
			if req.WithVector != nil && req.WithVector != false {
				point["vector"] = p.vectors
			}
			out = append(out, point)
		}
	}
	writeResult(w, out)
}

func (f *fakeQdrant) overwritePayload(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Payload map[string]any `json:"payload"`
		Points  []string       `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, id := range req.Points {
		p, ok := c.points[id]
		if !ok {
			writeError(w, http.StatusNotFound, "No point with id "+id+" found")
			return
		}
		p.payload = req.Payload
	}
	writeResult(w, map[string]any{"operation_id": 2, "status": "completed"})
}

func (f *fakeQdrant) deletePoints(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Points []string `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, id := range req.Points {
		delete(c.points, id)
	}
	writeResult(w, map[string]any{"operation_id": 3, "status": "completed"})
}

func (f *fakeQdrant) search(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Vector struct {
			Name   string    `json:"name"`
			Vector []float32 `json:"vector"`
		} `json:"vector"`
		Limit  int        `json:"limit"`
		Filter fakeFilter `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	type hit struct {
		id    string
		score float64
		p     *fakePoint
	}
	var hits []hit
	for id, p := range c.points {
		v, ok := p.vectors[req.Vector.Name]
		if !ok || !req.Filter.matches(p.payload) {
			continue
		}
		dist, ok := catalog.CosineDistance(req.Vector.Vector, v)
		if !ok {
			continue
		}
		hits = append(hits, hit{id: id, score: 1 - dist, p: p})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].id < hits[j].id
		}
		return hits[i].score > hits[j].score
	})
	if len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		out = append(out, map[string]any{"id": h.id, "version": 1, "score": h.score, "payload": h.p.payload})
	}
	writeResult(w, out)
}

func (f *fakeQdrant) scroll(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Limit       int        `json:"limit"`
		Offset      string     `json:"offset"`
		Filter      fakeFilter `json:"filter"`
		WithPayload any        `json:"with_payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids := make([]string, 0, len(c.points))
	for id, p := range c.points {
		if id >= req.Offset && req.Filter.matches(p.payload) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var next any
	if len(ids) > req.Limit {
		next = ids[req.Limit]
		ids = ids[:req.Limit]
	}

	points := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		points = append(points, map[string]any{"id": id, "payload": selectPayload(c.points[id].payload, req.WithPayload)})
	}
	writeResult(w, map[string]any{"points": points, "next_page_offset": next})
}

func (f *fakeQdrant) count(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Filter fakeFilter `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := 0
	for _, p := range c.points {
		if req.Filter.matches(p.payload) {
			n++
		}
	}
	writeResult(w, map[string]any{"count": n})
}

func (ff fakeFilter) matches(payload map[string]any) bool {
	for _, cond := range ff.Must {
		if !reflect.DeepEqual(payload[cond.Key], cond.Match.Value) {
			return false
		}
	}
	for _, cond := range ff.MustNot {
		if reflect.DeepEqual(payload[cond.Key], cond.Match.Value) {
			return false
		}
	}
	return true
}

// selectPayload applies a with_payload selector: true, false or a field list.
func selectPayload(payload map[string]any, selector any) map[string]any {
	switch sel := selector.(type) {
	case bool:
		if sel {
			return payload
		}
		return nil
	case []any:
		out := make(map[string]any, len(sel))
		for _, key := range sel {
			if k, ok := key.(string); ok {
				if v, exists := payload[k]; exists {
					out[k] = v
				}
			}
		}
		return out
	default:
		return nil
	}
}
