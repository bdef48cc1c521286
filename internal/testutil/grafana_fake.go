// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/toeirei/obskeeper/internal/model"
)

// FakeGrafana is an in-memory stand-in for the Grafana HTTP API routes
// obskeeper uses. Fields may be set before the first request; use the
// accessor methods afterwards.
type FakeGrafana struct {
	mu sync.Mutex

	User     string
	Password string

	Datasources []model.DatasourceRecord
	// Dashboards is keyed by uid.
	Dashboards map[string]map[string]any
	Saved      []model.SaveDashboardRequest

	// Failure injection, value is the HTTP status to answer with.
	FailFetch            map[string]int // by dashboard uid
	FailSave             map[string]int // by dashboard title
	FailCreateDatasource map[string]int // by datasource name
	FailList             int
	FailSearch           int
	Health               map[int64]int

	// OmitNestedID drops "datasource" from create responses, as older
	// Grafana versions do.
	OmitNestedID bool

	nextID int64
	Server *httptest.Server
}

// NewFakeGrafana starts a fake accepting basic auth admin/admin. The server
// is closed when t finishes.
func NewFakeGrafana(t testing.TB) *FakeGrafana {
	t.Helper()
	f := &FakeGrafana{
		User:       "admin",
		Password:   "admin",
		Dashboards: map[string]map[string]any{},
		nextID:     100,
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeGrafana) URL() string { return f.Server.URL }

// SavedTitles returns the titles of every saved dashboard, in order.
func (f *FakeGrafana) SavedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Saved))
	for _, s := range f.Saved {
		t, _ := s.Dashboard["title"].(string)
		out = append(out, t)
	}
	return out
}

// DatasourceNames returns the names of every datasource, in order.
func (f *FakeGrafana) DatasourceNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Datasources))
	for _, d := range f.Datasources {
		out = append(out, d.Name())
	}
	return out
}

// CurrentPassword returns the admin password after any change.
func (f *FakeGrafana) CurrentPassword() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Password
}

func (f *FakeGrafana) router() http.Handler {
	r := mux.NewRouter()
	r.Use(f.auth)
	r.HandleFunc("/api/datasources", f.listDatasources).Methods(http.MethodGet)
	r.HandleFunc("/api/datasources", f.createDatasource).Methods(http.MethodPost)
	r.HandleFunc("/api/datasources/proxy/{id:[0-9]+}/health", f.health).Methods(http.MethodGet)
	r.HandleFunc("/api/search", f.search).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboards/uid/{uid}", f.getDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboards/db", f.saveDashboard).Methods(http.MethodPost)
	r.HandleFunc("/api/user/password", f.changePassword).Methods(http.MethodPut)
	return r
}

func (f *FakeGrafana) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		f.mu.Lock()
		good := ok && u == f.User && p == f.Password
		f.mu.Unlock()
		if !good {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid username or password"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]any{"message": http.StatusText(status)})
}

func (f *FakeGrafana) listDatasources(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailList != 0 {
		fail(w, f.FailList)
		return
	}
	out := f.Datasources
	if out == nil {
		out = []model.DatasourceRecord{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeGrafana) createDatasource(w http.ResponseWriter, r *http.Request) {
	var ds model.DatasourceRecord
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil {
		fail(w, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.FailCreateDatasource[ds.Name()]; st != 0 {
		fail(w, st)
		return
	}
	for _, existing := range f.Datasources {
		if existing.Name() == ds.Name() {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "data source with the same name already exists"})
			return
		}
	}
	f.nextID++
	ds["id"] = f.nextID
	if ds.UID() == "" {
		ds["uid"] = fmt.Sprintf("ds-%d", f.nextID)
	}
	f.Datasources = append(f.Datasources, ds)

	resp := map[string]any{"id": f.nextID, "name": ds.Name(), "message": "Datasource added"}
	if !f.OmitNestedID {
		resp["datasource"] = map[string]any{"id": f.nextID, "uid": ds["uid"], "name": ds.Name()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeGrafana) health(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	f.mu.Lock()
	st := f.Health[id]
	f.mu.Unlock()
	if st == 0 {
		st = http.StatusOK
	}
	writeJSON(w, st, map[string]any{"status": http.StatusText(st)})
}

func (f *FakeGrafana) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSearch != 0 {
		fail(w, f.FailSearch)
		return
	}
	if r.URL.Query().Get("type") != "dash-db" {
		fail(w, http.StatusBadRequest)
		return
	}
	uids := make([]string, 0, len(f.Dashboards))
	for uid := range f.Dashboards {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	hits := make([]model.DashboardHit, 0, len(uids))
	for _, uid := range uids {
		title, _ := f.Dashboards[uid]["title"].(string)
		hits = append(hits, model.DashboardHit{UID: uid, Title: title, Type: "dash-db"})
	}
	writeJSON(w, http.StatusOK, hits)
}

func (f *FakeGrafana) getDashboard(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.FailFetch[uid]; st != 0 {
		fail(w, st)
		return
	}
	d, ok := f.Dashboards[uid]
	if !ok {
		fail(w, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dashboard": d,
		"meta":      map[string]any{"slug": strings.ToLower(uid), "folderId": 0},
	})
}

func (f *FakeGrafana) saveDashboard(w http.ResponseWriter, r *http.Request) {
	var req model.SaveDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dashboard == nil {
		fail(w, http.StatusBadRequest)
		return
	}
	title, _ := req.Dashboard["title"].(string)
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.FailSave[title]; st != 0 {
		fail(w, st)
		return
	}
	f.Saved = append(f.Saved, req)
	f.nextID++
	uid, _ := req.Dashboard["uid"].(string)
	if uid == "" {
		uid = fmt.Sprintf("db-%d", f.nextID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": f.nextID, "uid": uid, "url": "/d/" + uid, "status": "success", "version": 1,
	})
}

func (f *FakeGrafana) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if body.OldPassword != f.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid old password"})
		return
	}
	f.Password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]any{"message": "User password changed"})
}
